package dto

import "time"

type CreateExamRequest struct {
	Title           string     `json:"title" validate:"required"`
	Subject         string     `json:"subject" validate:"required"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes" validate:"required,min=1"`
	StartsAt        *time.Time `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt"`
}

type UpdateExamRequest struct {
	Title           *string    `json:"title"`
	Subject         *string    `json:"subject"`
	Description     *string    `json:"description"`
	DurationMinutes *int       `json:"durationMinutes" validate:"omitempty,min=1"`
	StartsAt        *time.Time `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt"`
	IsActive        *bool      `json:"isActive"`
}

type CreateQuestionRequest struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2"`
	CorrectOption int      `json:"correctOption" validate:"min=0"`
	Marks         int      `json:"marks" validate:"omitempty,min=1"`
}

// QuestionView is the student-facing question shape: no correct option.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Marks   int      `json:"marks"`
}

// ExamView is the student-facing exam shape.
type ExamView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Subject         string         `json:"subject"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"durationMinutes"`
	StartsAt        *time.Time     `json:"startsAt"`
	EndsAt          *time.Time     `json:"endsAt"`
	Questions       []QuestionView `json:"questions,omitempty"`
}

type RecordResultRequest struct {
	ExamID      string    `json:"examId" validate:"required"`
	Score       float64   `json:"score"`
	TotalMarks  float64   `json:"totalMarks"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}
