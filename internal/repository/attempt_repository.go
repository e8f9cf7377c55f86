package repository

import (
	"testhub_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

// Create 只写入与已有选项的关联，不回写选项本身
func (r *AttemptRepository) Create(attempt *model.TestAttempt) error {
	return r.DB.Omit("SelectedAnswers.*").Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.DB.
		Preload("User").
		Preload("Test").
		Preload("Test.Category").
		Preload("Test.Creator").
		Preload("SelectedAnswers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id asc")
		}).
		First(&attempt, id).Error
	return &attempt, err
}

func (r *AttemptRepository) ListByUser(userID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where("user_id = ?", userID).
		Preload("Test").
		Order("completed_at desc, id desc").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListRecent(limit int) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.
		Preload("User").
		Preload("Test").
		Order("completed_at desc, id desc").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestAttempt{}).Count(&count).Error
	return count, err
}

func (r *AttemptRepository) CountByUserAndTest(userID, testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Count(&count).Error
	return count, err
}

// DeleteByUser 删除用户全部作答及其选项关联。调用方负责提供事务。
func (r *AttemptRepository) DeleteByUser(userID uint) error {
	var ids []uint
	if err := r.DB.Model(&model.TestAttempt{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if err := deleteSelectionsByAttempts(r.DB, ids); err != nil {
		return err
	}
	return r.DB.Where("user_id = ?", userID).Delete(&model.TestAttempt{}).Error
}
