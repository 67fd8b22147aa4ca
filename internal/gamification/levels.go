package gamification

// LevelDefinition is one entry of the static level table.
type LevelDefinition struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	NameEn     string `json:"name_en"`
	Emoji      string `json:"emoji"`
	XPRequired int    `json:"xp_required"`
}

// levelTable is the fixed ascending ladder. XP thresholds are cumulative.
var levelTable = []LevelDefinition{
	{Level: 1, Name: "初心者", NameEn: "Novice", Emoji: "🌱", XPRequired: 0},
	{Level: 2, Name: "学徒", NameEn: "Apprentice", Emoji: "📖", XPRequired: 50},
	{Level: 3, Name: "战士", NameEn: "Warrior", Emoji: "⚔️", XPRequired: 150},
	{Level: 4, Name: "骑士", NameEn: "Knight", Emoji: "🛡️", XPRequired: 350},
	{Level: 5, Name: "大师", NameEn: "Master", Emoji: "🏆", XPRequired: 700},
	{Level: 6, Name: "传说", NameEn: "Legend", Emoji: "👑", XPRequired: 1200},
}

// Levels returns a copy of the level table in ascending order.
func Levels() []LevelDefinition {
	out := make([]LevelDefinition, len(levelTable))
	copy(out, levelTable)
	return out
}

// LevelForXP returns the highest level whose threshold the given XP meets.
// Total over all inputs; negative XP maps to the first level.
func LevelForXP(xp int) LevelDefinition {
	for i := len(levelTable) - 1; i >= 0; i-- {
		if xp >= levelTable[i].XPRequired {
			return levelTable[i]
		}
	}
	return levelTable[0]
}

// Progress describes how far into the current level an XP total is.
type Progress struct {
	Current int     `json:"current"`
	Needed  int     `json:"needed"`
	Percent float64 `json:"percent"`
}

// ProgressForXP returns progress toward the next level. At the top of the
// table it degenerates to {0, 0, 100}.
func ProgressForXP(xp int) Progress {
	current := LevelForXP(xp)
	if current.Level >= levelTable[len(levelTable)-1].Level {
		return Progress{Current: 0, Needed: 0, Percent: 100}
	}
	next := levelTable[current.Level] // table is 1-indexed by level
	into := xp - current.XPRequired
	needed := next.XPRequired - current.XPRequired
	percent := float64(into) / float64(needed) * 100
	if percent > 100 {
		percent = 100
	}
	return Progress{Current: into, Needed: needed, Percent: percent}
}
