package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testhub_backend/internal/config"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError 表单校验失败，Message 可直接展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in *RegisterInput) validate() error {
	switch {
	case in.Username == "" || in.Email == "" || in.Password == "" || in.PasswordConfirm == "":
		return &ValidationError{Field: "form", Message: "all fields are required"}
	case in.Password != in.PasswordConfirm:
		return &ValidationError{Field: "password_confirm", Message: "passwords do not match"}
	case len(in.Password) < MinPasswordLength:
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters long", MinPasswordLength)}
	case !emailPattern.MatchString(in.Email):
		return &ValidationError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

// Register 新用户一律为学生
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	taken, err := s.UserRepo.UsernameExists(in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrUsernameTaken
	}

	registered, err := s.UserRepo.EmailExists(in.Email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     model.Student,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login identifier 含 @ 时按邮箱查找，否则按用户名查找，均不区分大小写
func (s *AuthService) Login(identifier, password string) (string, *model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, util.ErrInvalidCredentials
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.UserRepo.FindByEmail(identifier)
	} else {
		user, err = s.UserRepo.FindByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	if err := s.UserRepo.TouchLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return token, user, nil
}
