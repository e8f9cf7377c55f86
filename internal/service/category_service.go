package service

import (
	"errors"
	"strings"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryService struct {
	CategoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{CategoryRepo: categoryRepo}
}

func (s *CategoryService) ListCategories(actor Actor) ([]model.Category, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.CategoryRepo.List()
}

// CreateCategory slug 留空时由名称生成
func (s *CategoryService) CreateCategory(actor Actor, name, slug string) (*model.Category, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = util.Slugify(name)
	}
	if !util.IsSlug(slug) {
		return nil, &ValidationError{Field: "slug", Message: "slug may only contain lowercase letters, digits and hyphens"}
	}

	exists, err := s.CategoryRepo.Exists(name, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrCategoryExists
	}

	category := &model.Category{Name: name, Slug: slug}
	if err := s.CategoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory 引用该分类的试卷保留，仅解除关联
func (s *CategoryService) DeleteCategory(actor Actor, id uint) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}

	detached, err := s.CategoryRepo.Delete(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCategoryNotFound
		}
		return err
	}

	logger.Log.Info("category deleted",
		zap.Uint("category_id", id),
		zap.String("actor", actor.Username),
		zap.Int64("tests_detached", detached),
	)
	return nil
}
