package models

import (
	"time"

	"gorm.io/datatypes"
)

// Exam is a scheduled examination owned by an admin. Questions are loaded
// with the exam; students receive a view with correct answers stripped.
type Exam struct {
	BaseModel
	Title           string     `gorm:"not null" json:"title"`
	Subject         string     `gorm:"not null;index" json:"subject"`
	Description     string     `json:"description"`
	DurationMinutes int        `gorm:"not null" json:"durationMinutes"`
	StartsAt        *time.Time `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt"`
	IsActive        bool       `gorm:"default:true" json:"isActive"`
	CreatedBy       string     `gorm:"type:uuid" json:"createdBy"`

	Questions []Question `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

// Question belongs to one exam. CorrectOption is never serialized; student
// reads go through dto.QuestionView.
type Question struct {
	BaseModel
	ExamID        string         `gorm:"type:uuid;not null;index" json:"examId"`
	Text          string         `gorm:"not null" json:"text"`
	Options       datatypes.JSON `gorm:"not null" json:"options"`
	CorrectOption int            `gorm:"not null" json:"-"`
	Marks         int            `gorm:"default:1" json:"marks"`
}
