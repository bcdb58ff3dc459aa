package model

import "time"

// EngagementClassification describes how an issue's engagement moved
// compared to its previous score.
type EngagementClassification string

const (
	EngagementHot  EngagementClassification = "hot"  // Score rose.
	EngagementWarm EngagementClassification = "warm" // Score unchanged.
	EngagementCold EngagementClassification = "cold" // Score fell.
)

// ScoreRecord is a persisted engagement score for one issue.
type ScoreRecord struct {
	ID             int64
	IssueID        string
	Owner          string
	Repository     string
	Number         int
	Score          int
	PreviousScore  int
	Classification EngagementClassification
	ComputedAt     time.Time
}
