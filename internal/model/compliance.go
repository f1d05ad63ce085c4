package model

// Level is the qualitative compliance bucket derived from the numeric score.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelPoor      Level = "poor"
)

// LevelForScore buckets a required-field ratio into a compliance level.
// Thresholds: excellent >= 0.9, good >= 0.75, fair >= 0.5, poor below.
func LevelForScore(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelExcellent
	case score >= 0.75:
		return LevelGood
	case score >= 0.5:
		return LevelFair
	default:
		return LevelPoor
	}
}

// ComplianceResult is the scorer's verdict for one resolved field set.
// Score is always required_present/required_total; warnings are advisory
// and never move the score.
type ComplianceResult struct {
	Present         map[string]bool `json:"present"`
	RequiredPresent int             `json:"required_present"`
	RequiredTotal   int             `json:"required_total"`
	Score           float64         `json:"score"`
	Level           Level           `json:"level"`
	MissingFields   []string        `json:"missing_fields"`
	Warnings        []string        `json:"warnings"`
}
