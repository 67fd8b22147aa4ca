package gamification

// defaultBadges is the built-in rule set, used as the template for first-time
// setup and as the fallback when a class has not customized its badges.
var defaultBadges = []BadgeDefinition{
	// Milestones.
	{ID: "first-score", Name: "初次得分", NameEn: "First Score", Emoji: "⭐", Category: CategoryMilestone,
		Description: "第一次获得分数", DescriptionEn: "Earned your first score",
		Condition: Condition{Type: CondFirstScore}, BonusPoints: 5},
	{ID: "xp-100", Name: "百分学者", NameEn: "Century Scholar", Emoji: "💯", Category: CategoryMilestone,
		Description: "累计获得100 XP", DescriptionEn: "Accumulated 100 XP",
		Condition: Condition{Type: CondTotalXP, XP: 100}, BonusPoints: 10},
	{ID: "xp-500", Name: "知识勇者", NameEn: "Knowledge Hero", Emoji: "🦸", Category: CategoryMilestone,
		Description: "累计获得500 XP", DescriptionEn: "Accumulated 500 XP",
		Condition: Condition{Type: CondTotalXP, XP: 500}, BonusPoints: 20},
	{ID: "xp-1000", Name: "传奇学者", NameEn: "Legendary Scholar", Emoji: "🌟", Category: CategoryMilestone,
		Description: "累计获得1000 XP", DescriptionEn: "Accumulated 1000 XP",
		Condition: Condition{Type: CondTotalXP, XP: 1000}, BonusPoints: 50},
	{ID: "level-3", Name: "战士觉醒", NameEn: "Warrior Awakened", Emoji: "⚔️", Category: CategoryMilestone,
		Description: "达到战士等级", DescriptionEn: "Reached Warrior level",
		Condition: Condition{Type: CondLevelReached, Level: 3}, BonusPoints: 15},
	{ID: "level-6", Name: "传说降临", NameEn: "Legend Arrives", Emoji: "👑", Category: CategoryMilestone,
		Description: "达到传说等级", DescriptionEn: "Reached Legend level",
		Condition: Condition{Type: CondLevelReached, Level: 6}, BonusPoints: 100},
	{ID: "first-reward", Name: "第一次兑换", NameEn: "First Redemption", Emoji: "🎁", Category: CategoryMilestone,
		Description: "第一次兑换礼物", DescriptionEn: "Redeemed your first reward",
		Condition: Condition{Type: CondRewardRedeemed, Count: 1}, BonusPoints: 5},

	// Streaks.
	{ID: "streak-3", Name: "三连胜", NameEn: "3-Day Streak", Emoji: "🔥", Category: CategoryStreak,
		Description: "连续3天获得正分", DescriptionEn: "3 consecutive days of positive scoring",
		Condition: Condition{Type: CondStreakDays, Days: 3}, BonusPoints: 5},
	{ID: "streak-7", Name: "周冠军", NameEn: "7-Day Streak", Emoji: "🔥", Category: CategoryStreak,
		Description: "连续7天获得正分", DescriptionEn: "7 consecutive days of positive scoring",
		Condition: Condition{Type: CondStreakDays, Days: 7}, BonusPoints: 10},
	{ID: "streak-14", Name: "双周达人", NameEn: "14-Day Streak", Emoji: "💪", Category: CategoryStreak,
		Description: "连续14天获得正分", DescriptionEn: "14 consecutive days of positive scoring",
		Condition: Condition{Type: CondStreakDays, Days: 14}, BonusPoints: 20},
	{ID: "streak-30", Name: "月度之星", NameEn: "30-Day Streak", Emoji: "🏅", Category: CategoryStreak,
		Description: "连续30天获得正分", DescriptionEn: "30 consecutive days of positive scoring",
		Condition: Condition{Type: CondStreakDays, Days: 30}, BonusPoints: 50},

	// Academic.
	{ID: "perfect-quiz-3", Name: "满分达人", NameEn: "Perfect Quiz Master", Emoji: "📝", Category: CategoryAcademic,
		Description: "3次测验满分", DescriptionEn: "Got perfect quiz score 3 times",
		Condition: Condition{Type: CondPerfectQuizCount, Count: 3}, BonusPoints: 15},
	{ID: "score-50", Name: "积分达人", NameEn: "50 Scores Earned", Emoji: "🎯", Category: CategoryScore,
		Description: "累计获得50次加分", DescriptionEn: "Received 50 positive scores",
		Condition: Condition{Type: CondScoreCount, Count: 50}, BonusPoints: 20},

	// Social.
	{ID: "helper", Name: "小帮手", NameEn: "Helper", Emoji: "🤝", Category: CategorySocial,
		Description: "5次助人为乐", DescriptionEn: "Helped others 5 times",
		Condition: Condition{Type: CondHelpingOthersCount, Count: 5}, BonusPoints: 10},
	{ID: "team-player", Name: "团队之星", NameEn: "Team Player", Emoji: "🌈", Category: CategorySocial,
		Description: "参与10次组别活动", DescriptionEn: "Participated in 10 group activities",
		Condition: Condition{Type: CondScoreCount, Count: 10}, BonusPoints: 10},

	// Attendance.
	{ID: "attendance-30", Name: "全勤之星", NameEn: "Attendance Star", Emoji: "📅", Category: CategoryAttendance,
		Description: "累计出勤30天", DescriptionEn: "Attended 30 days in total",
		Condition: Condition{Type: CondAttendanceDays, Days: 30}, BonusPoints: 20},
}

// DefaultBadges returns a copy of the built-in badge definitions.
func DefaultBadges() []BadgeDefinition {
	out := make([]BadgeDefinition, len(defaultBadges))
	copy(out, defaultBadges)
	return out
}
