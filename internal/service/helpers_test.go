package service

import (
	"context"
	"fmt"
	"testing"
	"testhub_backend/internal/model"
	"testhub_backend/pkg/database"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role model.UserRole) Actor {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func createTest(t *testing.T, db *gorm.DB, creator Actor, status model.TestStatus) *model.Test {
	t.Helper()
	test := &model.Test{
		CreatorID:         creator.UserID,
		Title:             "Go Fundamentals",
		Difficulty:        model.Beginner,
		DurationInMinutes: 30,
		Status:            status,
	}
	if err := db.Create(test).Error; err != nil {
		t.Fatalf("create test: %v", err)
	}
	return test
}

// seedQuestions 直接写库，不经过状态推导；第一个选项为正确答案
func seedQuestions(t *testing.T, db *gorm.DB, testID uint, n int) []model.Question {
	t.Helper()
	qs := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		q := model.Question{
			TestID: testID,
			Text:   fmt.Sprintf("Question %d", i+1),
			Answers: []model.Answer{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
				{Text: "also wrong"},
			},
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
		qs = append(qs, q)
	}
	return qs
}

func validQuestion(text string) QuestionInput {
	return QuestionInput{
		Text: text,
		Answers: []AnswerInput{
			{Text: "yes", IsCorrect: true},
			{Text: "no"},
		},
	}
}

func reloadStatus(t *testing.T, db *gorm.DB, testID uint) model.TestStatus {
	t.Helper()
	var test model.Test
	if err := db.First(&test, testID).Error; err != nil {
		t.Fatalf("reload test: %v", err)
	}
	return test.Status
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

var bg = context.Background()
