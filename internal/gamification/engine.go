package gamification

// Streak milestone ladders. Milestones are checked in ascending order and at
// most one streak_milestone event is emitted per operation.
var (
	ScoreStreakMilestones      = []int{3, 7, 14, 30}
	AttendanceStreakMilestones = []int{3, 7, 14, 30, 50, 100}
)

// defaultAttendanceXP is the fixed score granted for one attendance check-in.
const defaultAttendanceXP = 1

// Translator produces a display string from a zh/en pair. The engine has no
// language logic of its own; it only delegates.
type Translator func(zh, en string) string

// Context carries the per-call collaborator inputs: identity for notification
// text, the active badge rule set, exempt dates, localization, and the
// caller-supplied clock. Nothing is read from the system clock internally, so
// callers and tests stay deterministic.
type Context struct {
	StudentID   string
	StudentName string

	// Rules is the badge rule set. nil falls back to DefaultBadges; an
	// explicitly empty slice disables badges for the call.
	Rules []BadgeDefinition

	ExemptDates ExemptSet
	Translate   Translator

	// Today is the calendar date key the operation happens on.
	Today string
	// Now is the unix-millisecond timestamp recorded for badge unlocks.
	Now int64

	// AttendanceXP overrides the XP granted per check-in; zero means the
	// default of 1.
	AttendanceXP int

	// Milestone ladder overrides; nil means the package defaults.
	ScoreMilestones      []int
	AttendanceMilestones []int
}

func (c Context) translate(zh, en string) string {
	if c.Translate == nil {
		return en
	}
	return c.Translate(zh, en)
}

func (c Context) attendanceXP() int {
	if c.AttendanceXP <= 0 {
		return defaultAttendanceXP
	}
	return c.AttendanceXP
}

func (c Context) scoreMilestones() []int {
	if c.ScoreMilestones == nil {
		return ScoreStreakMilestones
	}
	return c.ScoreMilestones
}

func (c Context) attendanceMilestones() []int {
	if c.AttendanceMilestones == nil {
		return AttendanceStreakMilestones
	}
	return c.AttendanceMilestones
}

// EventType discriminates notification events.
type EventType string

// Notification event types.
const (
	EventLevelUp         EventType = "level_up"
	EventBadgeEarned     EventType = "badge_earned"
	EventStreakMilestone EventType = "streak_milestone"
)

// EventData carries the display payload of a notification event. Only the
// fields relevant to the event type are set.
type EventData struct {
	NewLevel    int    `json:"new_level,omitempty"`
	LevelEmoji  string `json:"level_emoji,omitempty"`
	LevelName   string `json:"level_name,omitempty"`
	BadgeID     string `json:"badge_id,omitempty"`
	BadgeEmoji  string `json:"badge_emoji,omitempty"`
	BadgeName   string `json:"badge_name,omitempty"`
	BonusPoints int    `json:"bonus_points,omitempty"`
	StreakDays  int    `json:"streak_days,omitempty"`
}

// Event is an ephemeral notification produced by an engine operation. Events
// are queued for display by the host and are never part of canonical state.
type Event struct {
	Type        EventType `json:"type"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Data        EventData `json:"data"`
}

// updateScoreStreak advances the general positive-scoring streak against
// today's date key. A repeat on the same calendar day leaves the streak
// untouched; multiple positive scores in one day never inflate it.
func updateScoreStreak(r Record, today string, exempt ExemptSet) Record {
	last := r.LastPositiveScoringDate
	if last == today {
		return r
	}
	if last == "" || !IsConsecutive(last, today, exempt) {
		r.CurrentStreak = 1
	} else {
		r.CurrentStreak++
	}
	if r.CurrentStreak > r.LongestStreak {
		r.LongestStreak = r.CurrentStreak
	}
	r.LastPositiveScoringDate = today
	return r
}

// applyBadgeRewards runs one badge pass: unlock every newly satisfied rule,
// stamp unlock times, and sum bonus points. The summed bonus is applied to XP
// by the caller in a single update before the final level check.
func applyBadgeRewards(r Record, ctx Context) (Record, []Event, int) {
	newIDs := CheckBadges(r, ctx.Rules)
	if len(newIDs) == 0 {
		return r, nil, 0
	}

	r.UnlockedBadgeIDs = append(r.UnlockedBadgeIDs, newIDs...)
	for _, id := range newIDs {
		r.BadgeUnlockedAt[id] = ctx.Now
	}

	var events []Event
	bonus := 0
	for _, id := range newIDs {
		badge, ok := BadgeByID(id, ctx.Rules)
		if !ok {
			continue
		}
		if badge.BonusPoints > 0 {
			bonus += badge.BonusPoints
		}
		events = append(events, Event{
			Type:        EventBadgeEarned,
			StudentID:   ctx.StudentID,
			StudentName: ctx.StudentName,
			Data: EventData{
				BadgeID:     badge.ID,
				BadgeEmoji:  badge.Emoji,
				BadgeName:   ctx.translate(badge.Name, badge.NameEn),
				BonusPoints: badge.BonusPoints,
			},
		})
	}
	return r, events, bonus
}

// levelUpEvent builds a level_up event for the level the final XP lands on.
func levelUpEvent(xp int, ctx Context) Event {
	def := LevelForXP(xp)
	return Event{
		Type:        EventLevelUp,
		StudentID:   ctx.StudentID,
		StudentName: ctx.StudentName,
		Data: EventData{
			NewLevel:   def.Level,
			LevelEmoji: def.Emoji,
			LevelName:  ctx.translate(def.Name, def.NameEn),
		},
	}
}

// streakMilestoneEvent returns the event for the first milestone the streak
// equals, ascending, or false when none matches.
func streakMilestoneEvent(streak int, milestones []int, ctx Context) (Event, bool) {
	for _, milestone := range milestones {
		if streak == milestone {
			return Event{
				Type:        EventStreakMilestone,
				StudentID:   ctx.StudentID,
				StudentName: ctx.StudentName,
				Data:        EventData{StreakDays: milestone},
			}, true
		}
	}
	return Event{}, false
}

// ApplyPositiveScore applies a positive score event: XP, score counters, the
// general scoring streak, then badges. Non-positive amounts are a guarded
// no-op returning the input unchanged.
//
// Bonus XP from newly earned badges is summed and applied once, and the
// level-up check runs against XP after the bonus, so a level crossed only
// because of badge bonuses is still reported.
func ApplyPositiveScore(r Record, amount int, itemID string, ctx Context) (Record, []Event) {
	if amount <= 0 {
		return r, nil
	}

	oldLevel := LevelForXP(r.XP).Level
	next := r.Clone()
	next.XP += amount
	next.TotalPositiveScores++
	if itemID != "" {
		next.ScoreItemCounts[itemID]++
	}
	next = updateScoreStreak(next, ctx.Today, ctx.ExemptDates)

	milestoneEvent, hasMilestone := streakMilestoneEvent(next.CurrentStreak, ctx.scoreMilestones(), ctx)

	next, badgeEvents, bonus := applyBadgeRewards(next, ctx)
	next.XP += bonus
	next.Level = LevelForXP(next.XP).Level

	var events []Event
	if next.Level > oldLevel {
		events = append(events, levelUpEvent(next.XP, ctx))
	}
	if hasMilestone {
		events = append(events, milestoneEvent)
	}
	events = append(events, badgeEvents...)
	return next, events
}

// ApplyBonusXP grants XP outside the normal scoring path, such as a group
// settlement payout. Streaks and score counters are untouched; badges and
// the level are re-checked against the new total. Non-positive amounts are a
// guarded no-op.
func ApplyBonusXP(r Record, amount int, ctx Context) (Record, []Event) {
	if amount <= 0 {
		return r, nil
	}

	oldLevel := LevelForXP(r.XP).Level
	next := r.Clone()
	next.XP += amount

	next, badgeEvents, bonus := applyBadgeRewards(next, ctx)
	next.XP += bonus
	next.Level = LevelForXP(next.XP).Level

	var events []Event
	if next.Level > oldLevel {
		events = append(events, levelUpEvent(next.XP, ctx))
	}
	events = append(events, badgeEvents...)
	return next, events
}

// ApplyRewardRedemption counts a reward redemption and runs the badge pass.
// XP and streaks are untouched except for badge bonus XP; the cost deduction
// and affordability check are the caller's responsibility.
func ApplyRewardRedemption(r Record, ctx Context) (Record, []Event) {
	oldLevel := LevelForXP(r.XP).Level
	next := r.Clone()
	next.RewardRedeemedCount++

	next, badgeEvents, bonus := applyBadgeRewards(next, ctx)
	next.XP += bonus
	next.Level = LevelForXP(next.XP).Level

	var events []Event
	if next.Level > oldLevel {
		events = append(events, levelUpEvent(next.XP, ctx))
	}
	events = append(events, badgeEvents...)
	return next, events
}

// ApplyAttendanceToday records today's check-in: fixed attendance XP, the
// attendance streak (exempt-date bridging applies), the attendance-day
// counter, and the general scoring streak, since attendance counts as a
// positive-scoring day. A repeated call for a day already checked in is an
// explicit no-op, so a double dispatch cannot double-count.
func ApplyAttendanceToday(r Record, ctx Context) (Record, []Event) {
	if r.LastAttendanceDate != "" && r.LastAttendanceDate == ctx.Today {
		return r, nil
	}

	newStreak := 1
	if r.LastAttendanceDate != "" && IsConsecutive(r.LastAttendanceDate, ctx.Today, ctx.ExemptDates) {
		newStreak = r.AttendanceStreak + 1
	}

	oldLevel := LevelForXP(r.XP).Level
	next := r.Clone()
	next.XP += ctx.attendanceXP()
	next.AttendanceDays++
	next.LastAttendanceDate = ctx.Today
	next.AttendanceStreak = newStreak
	if newStreak > next.LongestAttendanceStreak {
		next.LongestAttendanceStreak = newStreak
	}
	next.TotalPositiveScores++
	next = updateScoreStreak(next, ctx.Today, ctx.ExemptDates)

	milestoneEvent, hasMilestone := streakMilestoneEvent(next.AttendanceStreak, ctx.attendanceMilestones(), ctx)

	next, badgeEvents, bonus := applyBadgeRewards(next, ctx)
	next.XP += bonus
	next.Level = LevelForXP(next.XP).Level

	var events []Event
	if next.Level > oldLevel {
		events = append(events, levelUpEvent(next.XP, ctx))
	}
	if hasMilestone {
		events = append(events, milestoneEvent)
	}
	events = append(events, badgeEvents...)
	return next, events
}

// ApplyAttendanceMakeup backfills attendance for a past date: same XP and
// attendance-day increment as a live check-in, but the streak pointer is
// deliberately untouched. A backfilled day may change how other days connect,
// so the caller runs a full streak recompute from history afterward.
func ApplyAttendanceMakeup(r Record, ctx Context) (Record, []Event) {
	oldLevel := LevelForXP(r.XP).Level
	next := r.Clone()
	next.XP += ctx.attendanceXP()
	next.AttendanceDays++
	next.TotalPositiveScores++

	next, badgeEvents, bonus := applyBadgeRewards(next, ctx)
	next.XP += bonus
	next.Level = LevelForXP(next.XP).Level

	var events []Event
	if next.Level > oldLevel {
		events = append(events, levelUpEvent(next.XP, ctx))
	}
	events = append(events, badgeEvents...)
	return next, events
}

// ApplyAttendanceRevoke reverses one attendance grant: XP, attendance days,
// and the positive-score counter each drop by one, clamped at zero. When the
// revoked date is today's live streak anchor, the streak steps back and the
// anchor is cleared; revoking an older date leaves the stored streak to the
// caller's history recompute. Revocation is a backward correction: it unlocks
// no badges and emits no events.
func ApplyAttendanceRevoke(r Record, revokedDate, today string) Record {
	next := r.Clone()
	next.XP = clampZero(next.XP - 1)
	next.AttendanceDays = clampZero(next.AttendanceDays - 1)
	next.TotalPositiveScores = clampZero(next.TotalPositiveScores - 1)
	next.Level = LevelForXP(next.XP).Level

	if revokedDate == today && r.LastAttendanceDate == today {
		next.AttendanceStreak = clampZero(next.AttendanceStreak - 1)
		next.LastAttendanceDate = ""
	}
	return next
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
