package model

// swagger:model Question
type Question struct {
	ID      uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	TestID  uint     `gorm:"index;not null" json:"testId"`
	Text    string   `gorm:"type:text;not null" json:"text"`
	Answers []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Answer) TableName() string {
	return "answers"
}
