package repository

import (
	"testhub_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) List() ([]model.Category, error) {
	var categories []model.Category
	err := r.DB.Order("name asc").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) Create(category *model.Category) error {
	return r.DB.Create(category).Error
}

func (r *CategoryRepository) FindByID(id uint) (*model.Category, error) {
	var category model.Category
	err := r.DB.First(&category, id).Error
	return &category, err
}

func (r *CategoryRepository) FindBySlug(slug string) (*model.Category, error) {
	var category model.Category
	err := r.DB.Where("slug = ?", slug).First(&category).Error
	return &category, err
}

func (r *CategoryRepository) Exists(name, slug string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Category{}).
		Where("LOWER(name) = LOWER(?) OR slug = ?", name, slug).
		Count(&count).Error
	return count > 0, err
}

// Delete 先把引用该分类的试卷置空，再删除分类
func (r *CategoryRepository) Delete(id uint) (int64, error) {
	var detached int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Test{}).Where("category_id = ?", id).Update("category_id", nil)
		if res.Error != nil {
			return res.Error
		}
		detached = res.RowsAffected

		res = tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return detached, err
}
