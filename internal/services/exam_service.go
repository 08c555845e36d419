package services

import (
	"encoding/json"

	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/internal/services/dto"
	"examportal/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamService interface {
	CreateExam(db *gorm.DB, createdBy string, req *dto.CreateExamRequest) (*models.Exam, error)
	UpdateExam(db *gorm.DB, examID string, req *dto.UpdateExamRequest) (*models.Exam, error)
	DeleteExam(db *gorm.DB, examID string) error
	GetExam(db *gorm.DB, examID string) (*models.Exam, error)
	ListExams(db *gorm.DB) ([]models.Exam, error)

	// ListAvailable and StudentView return student-facing shapes with the
	// correct options stripped.
	ListAvailable(db *gorm.DB) ([]dto.ExamView, error)
	StudentView(db *gorm.DB, examID string) (*dto.ExamView, error)

	AddQuestion(db *gorm.DB, examID string, req *dto.CreateQuestionRequest) (*models.Question, error)
	UpdateQuestion(db *gorm.DB, questionID string, req *dto.CreateQuestionRequest) (*models.Question, error)
	DeleteQuestion(db *gorm.DB, questionID string) error
}

type ExamServiceImpl struct {
	examRepo repositories.ExamRepository
}

func NewExamService(examRepo repositories.ExamRepository) ExamService {
	return &ExamServiceImpl{examRepo: examRepo}
}

func (s *ExamServiceImpl) CreateExam(db *gorm.DB, createdBy string, req *dto.CreateExamRequest) (*models.Exam, error) {
	exam := &models.Exam{
		Title:           req.Title,
		Subject:         req.Subject,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        true,
		CreatedBy:       createdBy,
	}
	if err := s.examRepo.Create(db, exam); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return exam, nil
}

func (s *ExamServiceImpl) UpdateExam(db *gorm.DB, examID string, req *dto.UpdateExamRequest) (*models.Exam, error) {
	exam, err := s.findExam(db, examID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.StartsAt != nil {
		exam.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		exam.EndsAt = req.EndsAt
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}

	if err := s.examRepo.Update(db, exam); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return exam, nil
}

func (s *ExamServiceImpl) DeleteExam(db *gorm.DB, examID string) error {
	if err := s.examRepo.Delete(db, examID); err != nil {
		if apperrors.Is(err, repositories.ErrExamNotFound) {
			return apperrors.NewNotFoundError("exam", "Exam not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *ExamServiceImpl) GetExam(db *gorm.DB, examID string) (*models.Exam, error) {
	return s.findExam(db, examID)
}

func (s *ExamServiceImpl) ListExams(db *gorm.DB) ([]models.Exam, error) {
	exams, err := s.examRepo.List(db, false)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return exams, nil
}

func (s *ExamServiceImpl) ListAvailable(db *gorm.DB) ([]dto.ExamView, error) {
	exams, err := s.examRepo.List(db, true)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	views := make([]dto.ExamView, 0, len(exams))
	for i := range exams {
		views = append(views, toExamView(&exams[i], false))
	}
	return views, nil
}

func (s *ExamServiceImpl) StudentView(db *gorm.DB, examID string) (*dto.ExamView, error) {
	exam, err := s.findExam(db, examID)
	if err != nil {
		return nil, err
	}
	view := toExamView(exam, true)
	return &view, nil
}

func (s *ExamServiceImpl) AddQuestion(db *gorm.DB, examID string, req *dto.CreateQuestionRequest) (*models.Question, error) {
	if _, err := s.findExam(db, examID); err != nil {
		return nil, err
	}
	if req.CorrectOption >= len(req.Options) {
		return nil, apperrors.NewBadRequestError("correctOption is out of range")
	}

	q := &models.Question{
		ExamID:        examID,
		Text:          req.Text,
		Options:       encodeOptions(req.Options),
		CorrectOption: req.CorrectOption,
		Marks:         req.Marks,
	}
	if q.Marks <= 0 {
		q.Marks = 1
	}
	if err := s.examRepo.CreateQuestion(db, q); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return q, nil
}

func (s *ExamServiceImpl) UpdateQuestion(db *gorm.DB, questionID string, req *dto.CreateQuestionRequest) (*models.Question, error) {
	q, err := s.examRepo.FindQuestion(db, questionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, apperrors.NewNotFoundError("question", "Question not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if req.CorrectOption >= len(req.Options) {
		return nil, apperrors.NewBadRequestError("correctOption is out of range")
	}

	q.Text = req.Text
	q.Options = encodeOptions(req.Options)
	q.CorrectOption = req.CorrectOption
	if req.Marks > 0 {
		q.Marks = req.Marks
	}

	if err := s.examRepo.UpdateQuestion(db, q); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return q, nil
}

func (s *ExamServiceImpl) DeleteQuestion(db *gorm.DB, questionID string) error {
	if err := s.examRepo.DeleteQuestion(db, questionID); err != nil {
		if apperrors.Is(err, repositories.ErrQuestionNotFound) {
			return apperrors.NewNotFoundError("question", "Question not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *ExamServiceImpl) findExam(db *gorm.DB, examID string) (*models.Exam, error) {
	exam, err := s.examRepo.FindByID(db, examID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrExamNotFound) {
			return nil, apperrors.NewNotFoundError("exam", "Exam not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return exam, nil
}

func toExamView(exam *models.Exam, withQuestions bool) dto.ExamView {
	view := dto.ExamView{
		ID:              exam.ID,
		Title:           exam.Title,
		Subject:         exam.Subject,
		Description:     exam.Description,
		DurationMinutes: exam.DurationMinutes,
		StartsAt:        exam.StartsAt,
		EndsAt:          exam.EndsAt,
	}
	if !withQuestions {
		return view
	}
	for i := range exam.Questions {
		q := &exam.Questions[i]
		view.Questions = append(view.Questions, dto.QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: decodeOptions(q.Options),
			Marks:   q.Marks,
		})
	}
	return view
}

func encodeOptions(options []string) datatypes.JSON {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func decodeOptions(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil
	}
	return options
}
