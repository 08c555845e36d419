package repositories

import (
	"examportal/internal/models"

	"gorm.io/gorm"
)

type ResultRepository interface {
	Create(db *gorm.DB, result *models.Result) error
	FindByUser(db *gorm.DB, userID string) ([]models.Result, error)
	FindByExam(db *gorm.DB, examID string) ([]models.Result, error)

	CreateCheatingEvent(db *gorm.DB, event *models.CheatingEvent) error
	FindCheatingEventsByExam(db *gorm.DB, examID string) ([]models.CheatingEvent, error)
}

type ResultRepositoryImpl struct{}

func NewResultRepository() ResultRepository {
	return &ResultRepositoryImpl{}
}

func (r *ResultRepositoryImpl) Create(db *gorm.DB, result *models.Result) error {
	return db.Create(result).Error
}

func (r *ResultRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Result, error) {
	var results []models.Result
	err := db.Where("user_id = ?", userID).Order("submitted_at DESC").Find(&results).Error
	return results, err
}

func (r *ResultRepositoryImpl) FindByExam(db *gorm.DB, examID string) ([]models.Result, error) {
	var results []models.Result
	err := db.Where("exam_id = ?", examID).Order("submitted_at DESC").Find(&results).Error
	return results, err
}

func (r *ResultRepositoryImpl) CreateCheatingEvent(db *gorm.DB, event *models.CheatingEvent) error {
	return db.Create(event).Error
}

func (r *ResultRepositoryImpl) FindCheatingEventsByExam(db *gorm.DB, examID string) ([]models.CheatingEvent, error) {
	var events []models.CheatingEvent
	err := db.Where("exam_id = ?", examID).Order("created_at ASC").Find(&events).Error
	return events, err
}
