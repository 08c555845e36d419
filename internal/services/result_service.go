package services

import (
	"time"

	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/internal/services/dto"
	"examportal/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ResultService interface {
	RecordResult(db *gorm.DB, userID string, req *dto.RecordResultRequest) (*models.Result, error)
	ResultsForUser(db *gorm.DB, userID string) ([]models.Result, error)
	ResultsForExam(db *gorm.DB, examID string) ([]models.Result, error)

	RecordCheatingEvent(db *gorm.DB, examID, userID, eventType string, meta datatypes.JSON) error
	CheatingEventsForExam(db *gorm.DB, examID string) ([]models.CheatingEvent, error)
}

type ResultServiceImpl struct {
	resultRepo repositories.ResultRepository
	examRepo   repositories.ExamRepository
}

func NewResultService(resultRepo repositories.ResultRepository, examRepo repositories.ExamRepository) ResultService {
	return &ResultServiceImpl{resultRepo: resultRepo, examRepo: examRepo}
}

func (s *ResultServiceImpl) RecordResult(db *gorm.DB, userID string, req *dto.RecordResultRequest) (*models.Result, error) {
	if _, err := s.examRepo.FindByID(db, req.ExamID); err != nil {
		if apperrors.Is(err, repositories.ErrExamNotFound) {
			return nil, apperrors.NewNotFoundError("exam", "Exam not found")
		}
		return nil, apperrors.InternalError(err)
	}

	result := &models.Result{
		ExamID:      req.ExamID,
		UserID:      userID,
		Score:       req.Score,
		TotalMarks:  req.TotalMarks,
		Passed:      req.Passed,
		SubmittedAt: req.SubmittedAt,
	}
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now()
	}

	if err := s.resultRepo.Create(db, result); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return result, nil
}

func (s *ResultServiceImpl) ResultsForUser(db *gorm.DB, userID string) ([]models.Result, error) {
	results, err := s.resultRepo.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return results, nil
}

func (s *ResultServiceImpl) ResultsForExam(db *gorm.DB, examID string) ([]models.Result, error) {
	results, err := s.resultRepo.FindByExam(db, examID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return results, nil
}

func (s *ResultServiceImpl) RecordCheatingEvent(db *gorm.DB, examID, userID, eventType string, meta datatypes.JSON) error {
	event := &models.CheatingEvent{
		ExamID:    examID,
		UserID:    userID,
		EventType: eventType,
		Meta:      meta,
	}
	if err := s.resultRepo.CreateCheatingEvent(db, event); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *ResultServiceImpl) CheatingEventsForExam(db *gorm.DB, examID string) ([]models.CheatingEvent, error) {
	events, err := s.resultRepo.FindCheatingEventsByExam(db, examID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return events, nil
}
