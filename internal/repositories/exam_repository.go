package repositories

import (
	"errors"

	"examportal/internal/models"

	"gorm.io/gorm"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type ExamRepository interface {
	Create(db *gorm.DB, exam *models.Exam) error
	Update(db *gorm.DB, exam *models.Exam) error
	Delete(db *gorm.DB, examID string) error
	FindByID(db *gorm.DB, examID string) (*models.Exam, error)
	List(db *gorm.DB, activeOnly bool) ([]models.Exam, error)

	CreateQuestion(db *gorm.DB, q *models.Question) error
	UpdateQuestion(db *gorm.DB, q *models.Question) error
	DeleteQuestion(db *gorm.DB, questionID string) error
	FindQuestion(db *gorm.DB, questionID string) (*models.Question, error)
}

type ExamRepositoryImpl struct{}

func NewExamRepository() ExamRepository {
	return &ExamRepositoryImpl{}
}

func (r *ExamRepositoryImpl) Create(db *gorm.DB, exam *models.Exam) error {
	return db.Create(exam).Error
}

func (r *ExamRepositoryImpl) Update(db *gorm.DB, exam *models.Exam) error {
	result := db.Model(exam).Updates(map[string]interface{}{
		"title":            exam.Title,
		"subject":          exam.Subject,
		"description":      exam.Description,
		"duration_minutes": exam.DurationMinutes,
		"starts_at":        exam.StartsAt,
		"ends_at":          exam.EndsAt,
		"is_active":        exam.IsActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (r *ExamRepositoryImpl) Delete(db *gorm.DB, examID string) error {
	// Questions go with the exam.
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", examID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", examID).Delete(&models.Exam{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrExamNotFound
		}
		return nil
	})
}

func (r *ExamRepositoryImpl) FindByID(db *gorm.DB, examID string) (*models.Exam, error) {
	var exam models.Exam
	err := db.Preload("Questions").First(&exam, "id = ?", examID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepositoryImpl) List(db *gorm.DB, activeOnly bool) ([]models.Exam, error) {
	var exams []models.Exam
	query := db.Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&exams).Error
	return exams, err
}

func (r *ExamRepositoryImpl) CreateQuestion(db *gorm.DB, q *models.Question) error {
	return db.Create(q).Error
}

func (r *ExamRepositoryImpl) UpdateQuestion(db *gorm.DB, q *models.Question) error {
	result := db.Model(q).Updates(map[string]interface{}{
		"text":           q.Text,
		"options":        q.Options,
		"correct_option": q.CorrectOption,
		"marks":          q.Marks,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *ExamRepositoryImpl) DeleteQuestion(db *gorm.DB, questionID string) error {
	result := db.Where("id = ?", questionID).Delete(&models.Question{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *ExamRepositoryImpl) FindQuestion(db *gorm.DB, questionID string) (*models.Question, error) {
	var q models.Question
	err := db.First(&q, "id = ?", questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}
