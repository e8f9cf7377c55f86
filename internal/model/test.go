package model

type TestStatus string

const (
	TestDraft     TestStatus = "draft"
	TestPublished TestStatus = "published"
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Expert       Difficulty = "expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Expert:
		return true
	}
	return false
}

// Test 一套试卷。Status 由题目数量推导，只有手动切换会绕过该规则。
// swagger:model Test
type Test struct {
	BaseModel
	CreatorID         uint       `gorm:"index;not null" json:"creatorId"`
	Creator           *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CategoryID        *uint      `gorm:"index" json:"categoryId"`
	Category          *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	Difficulty        Difficulty `gorm:"size:20;default:'intermediate'" json:"difficulty"`
	DurationInMinutes int        `gorm:"not null" json:"durationInMinutes"`
	Image             string     `gorm:"size:255" json:"image"`
	ImageKey          string     `gorm:"size:255" json:"-"`
	Status            TestStatus `gorm:"size:20;default:'draft';index" json:"status"`
	Questions         []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}
