package model

import "time"

// TestAttempt 一次交卷记录，创建后不再修改
// swagger:model TestAttempt
type TestAttempt struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"userId"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TestID          uint      `gorm:"index;not null" json:"testId"`
	Test            *Test     `gorm:"foreignKey:TestID" json:"test,omitempty"`
	Score           float64   `gorm:"not null" json:"score"`
	CompletedAt     time.Time `gorm:"index" json:"completedAt"`
	SelectedAnswers []Answer  `gorm:"many2many:test_attempt_selected_answers" json:"selectedAnswers,omitempty"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// AttemptSelectionTable 作答与所选答案的关联表
const AttemptSelectionTable = "test_attempt_selected_answers"
