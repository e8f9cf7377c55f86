package service

import (
	"context"
	"errors"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	DB          *gorm.DB
	UserRepo    *repository.UserRepository
	TestRepo    *repository.TestRepository
	AttemptRepo *repository.AttemptRepository
	Images      *ImageService
}

func NewUserService(db *gorm.DB, images *ImageService) *UserService {
	return &UserService{
		DB:          db,
		UserRepo:    repository.NewUserRepository(db),
		TestRepo:    repository.NewTestRepository(db),
		AttemptRepo: repository.NewAttemptRepository(db),
		Images:      images,
	}
}

func (s *UserService) Profile(actor Actor) (*model.User, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(actor Actor, current, next, confirm string) error {
	user, err := s.Profile(actor)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return &ValidationError{Field: "current_password", Message: "current password is incorrect"}
	}
	if next != confirm {
		return &ValidationError{Field: "password_confirm", Message: "passwords do not match"}
	}
	if len(next) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "password is too short"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(user.ID, string(hashed))
}

// DeleteAccount 显式删除用户的作答、其创建的试卷及全部从属数据，最后删除用户
func (s *UserService) DeleteAccount(ctx context.Context, actor Actor) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}

	var (
		imageKeys []string
		removed   int
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		tests := s.TestRepo.WithTx(tx)

		if _, err := users.FindByID(actor.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		if err := s.AttemptRepo.WithTx(tx).DeleteByUser(actor.UserID); err != nil {
			return err
		}

		ids, err := tests.IDsByCreator(actor.UserID)
		if err != nil {
			return err
		}
		removed = len(ids)
		for _, id := range ids {
			test, err := tests.FindByID(id)
			if err != nil {
				return err
			}
			if test.ImageKey != "" {
				imageKeys = append(imageKeys, test.ImageKey)
			}
			if err := tests.Delete(id); err != nil {
				return err
			}
		}

		return users.Delete(actor.UserID)
	})
	if err != nil {
		return err
	}

	for _, key := range imageKeys {
		s.Images.Remove(ctx, key)
	}
	logger.Log.Info("account deleted", zap.Uint("user_id", actor.UserID), zap.Int("tests_removed", removed))
	return nil
}
