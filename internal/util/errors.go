package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category name or slug already exists")
	ErrTestNotFound         = errors.New("test not found")
	ErrTestNotPublished     = errors.New("test not published or not accessible")
	ErrTestAlreadySubmitted = errors.New("test already submitted")
	ErrSubmitInProgress     = errors.New("a submission for this test is already in progress")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrInvalidSelection     = errors.New("selected answer does not belong to the question")
	ErrInvalidQuestion      = errors.New("invalid question")
	ErrInvalidImage         = errors.New("invalid image")
)
