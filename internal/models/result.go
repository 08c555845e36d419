package models

import (
	"time"

	"gorm.io/datatypes"
)

// Result records a student's finished attempt. Scoring happens outside this
// service; the submission relay supplies the numbers.
type Result struct {
	BaseModel
	ExamID      string    `gorm:"type:uuid;not null;index" json:"examId"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"userId"`
	Score       float64   `json:"score"`
	TotalMarks  float64   `json:"totalMarks"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CheatingEvent is an append-only proctoring signal persisted by the
// signaling hub. Interpretation and scoring of events is out of scope here.
type CheatingEvent struct {
	BaseModel
	ExamID    string         `gorm:"type:uuid;not null;index" json:"examId"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	EventType string         `gorm:"not null" json:"eventType"`
	Meta      datatypes.JSON `json:"meta,omitempty"`
}
