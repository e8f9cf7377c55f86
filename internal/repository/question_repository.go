package repository

import (
	"testhub_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

// Create 同时写入题目及其 Answers
func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("answers.id asc")
	}).First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) ListByTest(testID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("test_id = ?", testID).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id asc")
		}).
		Order("id asc").
		Find(&qs).Error
	return qs, err
}

// Delete 删除题目、选项以及作答记录中对这些选项的引用。调用方负责提供事务。
func (r *QuestionRepository) Delete(id uint) error {
	return deleteQuestions(r.DB, []uint{id})
}
