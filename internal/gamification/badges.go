package gamification

// ConditionType tags a badge trigger condition.
type ConditionType string

// Supported condition kinds. An unrecognized type is never satisfied: badge
// rule sets are teacher-authored, and a malformed rule must not be able to
// break scoring for the whole class.
const (
	CondFirstScore         ConditionType = "first_score"
	CondTotalXP            ConditionType = "total_xp"
	CondLevelReached       ConditionType = "level_reached"
	CondStreakDays         ConditionType = "streak_days"
	CondScoreCount         ConditionType = "score_count"
	CondScoreItemCount     ConditionType = "score_item_count"
	CondRewardRedeemed     ConditionType = "reward_redeemed"
	CondPerfectQuizCount   ConditionType = "perfect_quiz_count"
	CondHelpingOthersCount ConditionType = "helping_others_count"
	CondAttendanceDays     ConditionType = "attendance_days"
)

// Condition is the trigger for a badge, a tagged union with one threshold
// field per kind.
type Condition struct {
	Type   ConditionType `json:"type"`
	XP     int           `json:"xp,omitempty"`
	Level  int           `json:"level,omitempty"`
	Days   int           `json:"days,omitempty"`
	Count  int           `json:"count,omitempty"`
	ItemID string        `json:"item_id,omitempty"`
}

// Badge categories.
const (
	CategoryMilestone  = "milestone"
	CategoryStreak     = "streak"
	CategoryScore      = "score"
	CategoryAcademic   = "academic"
	CategorySocial     = "social"
	CategoryAttendance = "attendance"
	CategoryCustom     = "custom"
)

// BadgeDefinition describes one earnable badge.
type BadgeDefinition struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameEn        string    `json:"name_en"`
	Emoji         string    `json:"emoji"`
	Description   string    `json:"description"`
	DescriptionEn string    `json:"description_en"`
	Category      string    `json:"category"`
	Condition     Condition `json:"condition"`
	BonusPoints   int       `json:"bonus_points,omitempty"`
	IsCustom      bool      `json:"is_custom,omitempty"`
}

// conditionMet evaluates one condition against the record's current fields.
// Streak conditions hold when either the current or the historical longest
// streak meets the threshold, so a badge is not forfeited when a streak later
// breaks.
func conditionMet(r Record, c Condition) bool {
	switch c.Type {
	case CondFirstScore:
		return r.TotalPositiveScores >= 1
	case CondTotalXP:
		return r.XP >= c.XP
	case CondLevelReached:
		return r.Level >= c.Level
	case CondStreakDays:
		return r.CurrentStreak >= c.Days || r.LongestStreak >= c.Days
	case CondScoreCount:
		return r.TotalPositiveScores >= c.Count
	case CondScoreItemCount:
		return r.ScoreItemCounts[c.ItemID] >= c.Count
	case CondRewardRedeemed:
		return r.RewardRedeemedCount >= c.Count
	case CondPerfectQuizCount:
		return r.PerfectQuizCount >= c.Count
	case CondHelpingOthersCount:
		return r.HelpingOthersCount >= c.Count
	case CondAttendanceDays:
		return r.AttendanceDays >= c.Days
	default:
		return false
	}
}

// CheckBadges returns the ids of rules whose condition is newly satisfied:
// the condition holds and the id is not already unlocked. Evaluation is pure
// over the record's current field values; no history is replayed here. A nil
// rule set falls back to the default badges; an explicitly empty set means no
// badges.
func CheckBadges(r Record, rules []BadgeDefinition) []string {
	if rules == nil {
		rules = DefaultBadges()
	}
	var newIDs []string
	for _, badge := range rules {
		if r.HasBadge(badge.ID) {
			continue
		}
		if conditionMet(r, badge.Condition) {
			newIDs = append(newIDs, badge.ID)
		}
	}
	return newIDs
}

// BadgeByID finds a badge definition in the rule set, falling back to the
// defaults when the set is nil.
func BadgeByID(id string, rules []BadgeDefinition) (BadgeDefinition, bool) {
	if rules == nil {
		rules = DefaultBadges()
	}
	for _, badge := range rules {
		if badge.ID == id {
			return badge, true
		}
	}
	return BadgeDefinition{}, false
}
