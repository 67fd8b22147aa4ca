package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/notifier"
	"github.com/davinwzy/growth-lab/internal/service/leaderboard"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

func TestBuildCronExpression(t *testing.T) {
	tests := []struct {
		name         string
		time         string
		skipWeekends bool
		want         string
		wantErr      bool
	}{
		{
			name:         "daily at 3am",
			time:         "03:00",
			skipWeekends: false,
			want:         "0 3 * * *",
			wantErr:      false,
		},
		{
			name:         "weekdays at 3am",
			time:         "03:00",
			skipWeekends: true,
			want:         "0 3 * * 1-5",
			wantErr:      false,
		},
		{
			name:         "daily at 14:30",
			time:         "14:30",
			skipWeekends: false,
			want:         "30 14 * * *",
			wantErr:      false,
		},
		{
			name:         "invalid format no colon",
			time:         "0300",
			skipWeekends: false,
			want:         "",
			wantErr:      true,
		},
		{
			name:         "invalid hour",
			time:         "25:00",
			skipWeekends: false,
			want:         "",
			wantErr:      true,
		},
		{
			name:         "invalid minute",
			time:         "03:60",
			skipWeekends: false,
			want:         "",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Scheduler: config.SchedulerConfig{
					Time:         tt.time,
					SkipWeekends: tt.skipWeekends,
				},
			}

			s := &Service{config: cfg}

			got, err := s.buildCronExpression()

			if (err != nil) != tt.wantErr {
				t.Errorf("buildCronExpression() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if got != tt.want {
				t.Errorf("buildCronExpression() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Mock collaborators for testing

type mockClassroomRepository struct {
	classrooms []models.Classroom
}

func (m *mockClassroomRepository) GetAllClassrooms() ([]models.Classroom, error) {
	return m.classrooms, nil
}

type mockRecomputer struct {
	classrooms []string
}

func (m *mockRecomputer) RecomputeClassroom(ctx context.Context, classroomID string) error {
	m.classrooms = append(m.classrooms, classroomID)
	return nil
}

type mockExemptionEnsurer struct {
	calls int
}

func (m *mockExemptionEnsurer) EnsureWeekendExemptions(ctx context.Context, classroomID string, from, to time.Time) (int, error) {
	m.calls++
	return 2, nil
}

type mockLeaderboardService struct {
	entries []leaderboard.Entry
}

func (m *mockLeaderboardService) GetClassroomLeaderboard(ctx context.Context, classroomID string, limit int) ([]leaderboard.Entry, error) {
	return m.entries, nil
}

type mockDigestSender struct {
	sent map[string][]notifier.DigestEntry
}

func (m *mockDigestSender) SendDailyDigest(classroomName string, entries []notifier.DigestEntry) error {
	if m.sent == nil {
		m.sent = make(map[string][]notifier.DigestEntry)
	}
	m.sent[classroomName] = entries
	return nil
}

func TestRunNightlyRecompute(t *testing.T) {
	classrooms := &mockClassroomRepository{classrooms: []models.Classroom{
		{ID: "c1", Name: "Class 3A"},
		{ID: "c2", Name: "Class 3B"},
	}}
	recomputer := &mockRecomputer{}
	exemptions := &mockExemptionEnsurer{}

	s := NewService(&config.Config{}, classrooms, recomputer, exemptions, nil, nil,
		logger.New("error", "json", "stdout"))

	s.runNightlyRecompute(context.Background())

	if len(recomputer.classrooms) != 2 {
		t.Errorf("Expected 2 recomputes, got %v", recomputer.classrooms)
	}
	if exemptions.calls != 2 {
		t.Errorf("Expected weekend exemptions ensured per classroom, got %d calls", exemptions.calls)
	}
}

func TestRunDailyDigest(t *testing.T) {
	classrooms := &mockClassroomRepository{classrooms: []models.Classroom{
		{ID: "c1", Name: "Class 3A"},
	}}
	lb := &mockLeaderboardService{entries: []leaderboard.Entry{
		{Rank: 1, StudentID: "s1", StudentName: "Alice", XP: 120, Level: 2},
		{Rank: 2, StudentID: "s2", StudentName: "Bob", XP: 80, Level: 2},
	}}
	sender := &mockDigestSender{}

	s := NewService(&config.Config{}, classrooms, &mockRecomputer{}, nil, lb, sender,
		logger.New("error", "json", "stdout"))

	s.runDailyDigest(context.Background())

	entries, ok := sender.sent["Class 3A"]
	if !ok {
		t.Fatal("Expected digest for Class 3A")
	}
	if len(entries) != 2 || entries[0].StudentName != "Alice" || entries[0].XP != 120 {
		t.Errorf("Unexpected digest entries: %+v", entries)
	}
}

func TestRunDailyDigest_SkipsEmptyClassrooms(t *testing.T) {
	classrooms := &mockClassroomRepository{classrooms: []models.Classroom{
		{ID: "c1", Name: "Empty"},
	}}
	sender := &mockDigestSender{}

	s := NewService(&config.Config{}, classrooms, &mockRecomputer{}, nil,
		&mockLeaderboardService{}, sender,
		logger.New("error", "json", "stdout"))

	s.runDailyDigest(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("Expected no digests for empty classrooms, got %v", sender.sent)
	}
}

func TestStart_Disabled(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Enabled: false}}
	s := NewService(cfg, &mockClassroomRepository{}, &mockRecomputer{}, nil, nil, nil,
		logger.New("error", "json", "stdout"))

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed for disabled scheduler: %v", err)
	}
	if s.cron != nil {
		t.Error("Expected no cron instance when disabled")
	}
}

func TestStartAndStop(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		Enabled:    true,
		Time:       "03:00",
		DigestTime: "0 18 * * 1-5",
		Timezone:   "UTC",
	}}
	s := NewService(cfg, &mockClassroomRepository{}, &mockRecomputer{}, nil,
		&mockLeaderboardService{}, &mockDigestSender{},
		logger.New("error", "json", "stdout"))

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if s.cron == nil {
		t.Fatal("Expected cron instance after Start")
	}
	if len(s.cron.Entries()) != 2 {
		t.Errorf("Expected 2 registered jobs, got %d", len(s.cron.Entries()))
	}
	s.Stop()
}
