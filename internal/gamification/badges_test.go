package gamification

import "testing"

func TestCheckBadgesConditions(t *testing.T) {
	rec := NewRecord("s1")
	rec.XP = 120
	rec.Level = 2
	rec.CurrentStreak = 2
	rec.LongestStreak = 8
	rec.TotalPositiveScores = 12
	rec.RewardRedeemedCount = 1
	rec.PerfectQuizCount = 3
	rec.HelpingOthersCount = 5
	rec.AttendanceDays = 30
	rec.ScoreItemCounts = map[string]int{"homework": 4}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{name: "first score", cond: Condition{Type: CondFirstScore}, want: true},
		{name: "total xp met", cond: Condition{Type: CondTotalXP, XP: 100}, want: true},
		{name: "total xp unmet", cond: Condition{Type: CondTotalXP, XP: 500}, want: false},
		{name: "level met", cond: Condition{Type: CondLevelReached, Level: 2}, want: true},
		{name: "level unmet", cond: Condition{Type: CondLevelReached, Level: 3}, want: false},
		{name: "streak via longest", cond: Condition{Type: CondStreakDays, Days: 7}, want: true},
		{name: "streak unmet", cond: Condition{Type: CondStreakDays, Days: 9}, want: false},
		{name: "score count", cond: Condition{Type: CondScoreCount, Count: 10}, want: true},
		{name: "item count met", cond: Condition{Type: CondScoreItemCount, ItemID: "homework", Count: 4}, want: true},
		{name: "item count absent item", cond: Condition{Type: CondScoreItemCount, ItemID: "quiz", Count: 1}, want: false},
		{name: "reward redeemed", cond: Condition{Type: CondRewardRedeemed, Count: 1}, want: true},
		{name: "perfect quiz", cond: Condition{Type: CondPerfectQuizCount, Count: 3}, want: true},
		{name: "helping others", cond: Condition{Type: CondHelpingOthersCount, Count: 5}, want: true},
		{name: "attendance days", cond: Condition{Type: CondAttendanceDays, Days: 30}, want: true},
		{name: "unknown type is never satisfied", cond: Condition{Type: "made_up", Count: 0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []BadgeDefinition{{ID: "b", Condition: tt.cond}}
			got := CheckBadges(rec, rules)
			if (len(got) == 1) != tt.want {
				t.Errorf("CheckBadges = %v, want satisfied=%v", got, tt.want)
			}
		})
	}
}

func TestCheckBadgesIdempotent(t *testing.T) {
	rec := NewRecord("s1")
	rec.TotalPositiveScores = 1

	rules := []BadgeDefinition{{ID: "first", Condition: Condition{Type: CondFirstScore}}}
	first := CheckBadges(rec, rules)
	if len(first) != 1 || first[0] != "first" {
		t.Fatalf("CheckBadges = %v, want [first]", first)
	}

	rec.UnlockedBadgeIDs = append(rec.UnlockedBadgeIDs, first...)
	if again := CheckBadges(rec, rules); len(again) != 0 {
		t.Errorf("second evaluation returned %v, want none", again)
	}
}

func TestCheckBadgesStreakSurvivesBreak(t *testing.T) {
	rec := NewRecord("s1")
	rec.CurrentStreak = 1 // streak broke
	rec.LongestStreak = 7

	rules := []BadgeDefinition{{ID: "streak-7", Condition: Condition{Type: CondStreakDays, Days: 7}}}
	if got := CheckBadges(rec, rules); len(got) != 1 {
		t.Errorf("badge lost after streak break: %v", got)
	}
}

func TestDefaultBadgesAreWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range DefaultBadges() {
		if b.ID == "" || b.NameEn == "" {
			t.Errorf("badge missing id or name: %+v", b)
		}
		if seen[b.ID] {
			t.Errorf("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = true
		if b.Condition.Type == "" {
			t.Errorf("badge %q has no condition", b.ID)
		}
	}
}

func TestBadgeByID(t *testing.T) {
	if _, ok := BadgeByID("first-score", nil); !ok {
		t.Error("first-score missing from defaults")
	}
	if _, ok := BadgeByID("nope", nil); ok {
		t.Error("unexpected badge found")
	}
	custom := []BadgeDefinition{{ID: "only"}}
	if _, ok := BadgeByID("first-score", custom); ok {
		t.Error("custom rule set should not fall through to defaults")
	}
}
