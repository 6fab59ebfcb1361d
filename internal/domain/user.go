package domain

import "time"

// Contributor levels, in ascending order of points.
const (
	LevelBeginner    = "beginner"
	LevelContributor = "contributor"
	LevelExpert      = "expert"
	LevelMaster      = "master"
	LevelLegend      = "legend"
	LevelChampion    = "champion"
)

// levelThresholds maps the minimum points balance to each level.
var levelThresholds = []struct {
	Min   int
	Level string
	Label string
}{
	{0, LevelBeginner, "Beginner"},
	{100, LevelContributor, "Contributor"},
	{500, LevelExpert, "Expert"},
	{1000, LevelMaster, "Master"},
	{2500, LevelLegend, "Legend"},
	{5000, LevelChampion, "Kolokwa Champion"},
}

// LevelForPoints derives the level key for a points balance. Pure function;
// the result is persisted onto the User row whenever points change.
func LevelForPoints(points int) string {
	level := levelThresholds[0].Level
	for _, t := range levelThresholds {
		if points >= t.Min {
			level = t.Level
		}
	}
	return level
}

// LevelInfo describes where a points balance sits between level thresholds,
// for display purposes.
type LevelInfo struct {
	Level         string  `json:"level"`
	Label         string  `json:"label"`
	Threshold     int     `json:"threshold"`
	NextLevel     string  `json:"next_level,omitempty"`
	NextThreshold int     `json:"next_threshold,omitempty"`
	Progress      float64 `json:"progress"` // percent toward the next level, capped at 100
}

// LevelInfoForPoints computes the current and next level plus the progress
// percentage between them.
func LevelInfoForPoints(points int) LevelInfo {
	cur := 0
	for i, t := range levelThresholds {
		if points >= t.Min {
			cur = i
		}
	}

	info := LevelInfo{
		Level:     levelThresholds[cur].Level,
		Label:     levelThresholds[cur].Label,
		Threshold: levelThresholds[cur].Min,
		Progress:  100,
	}
	if cur+1 < len(levelThresholds) {
		next := levelThresholds[cur+1]
		info.NextLevel = next.Level
		info.NextThreshold = next.Min
		span := next.Min - info.Threshold
		if span > 0 {
			info.Progress = float64(points-info.Threshold) / float64(span) * 100
		}
		if info.Progress > 100 {
			info.Progress = 100
		}
	}
	return info
}

// User is the community member aggregate consumed by the dictionary core.
// Identity and authentication live elsewhere; this row carries the
// denormalized gamification state: Points mirrors the sum of the user's
// point transactions, Level is derived from Points, and the two counters
// mirror the entry and verification ledgers. All four are recomputable by
// the reconciliation procedure.
type User struct {
	ID       string `json:"id"       gorm:"type:varchar(64);primaryKey"`
	Username string `json:"username" gorm:"type:varchar(150);index"`

	Points             int    `json:"points" gorm:"not null;default:0"`
	Level              string `json:"level"  gorm:"type:varchar(20);not null;default:'beginner'"`
	ContributionsCount int    `json:"contributions_count" gorm:"not null;default:0"`
	VerificationsCount int    `json:"verifications_count" gorm:"not null;default:0"`

	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
