package service

import (
	"testhub_backend/internal/model"
	"time"
)

// 只读的结构化记录，供外部系统使用，访问规则与页面流程一致

type CategoryRecord struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type AnswerRecord struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
	// 普通用户看不到
	IsCorrect *bool `json:"is_correct,omitempty"`
}

type QuestionRecord struct {
	ID      uint           `json:"id"`
	Text    string         `json:"text"`
	Answers []AnswerRecord `json:"answers"`
}

type TestRecord struct {
	ID                uint             `json:"id"`
	Title             string           `json:"title"`
	Creator           string           `json:"creator"`
	Category          string           `json:"category,omitempty"`
	Description       string           `json:"description"`
	Difficulty        model.Difficulty `json:"difficulty"`
	DurationInMinutes int              `json:"duration_in_minutes"`
	Image             string           `json:"image,omitempty"`
	Status            model.TestStatus `json:"status"`
	NumberOfQuestions int              `json:"number_of_questions"`
	Questions         []QuestionRecord `json:"questions"`
}

type UserRecord struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AttemptRecord struct {
	ID              uint       `json:"id"`
	User            UserRecord `json:"user"`
	Test            string     `json:"test"`
	TestID          uint       `json:"test_id"`
	Score           float64    `json:"score"`
	CompletedAt     time.Time  `json:"completed_at"`
	SelectedAnswers []uint     `json:"selected_answers"`
}

type RecordService struct {
	CategoryService *CategoryService
	TestService     *TestService
	AttemptService  *AttemptService
}

func NewRecordService(categories *CategoryService, tests *TestService, attempts *AttemptService) *RecordService {
	return &RecordService{CategoryService: categories, TestService: tests, AttemptService: attempts}
}

func (s *RecordService) Categories(actor Actor) ([]CategoryRecord, error) {
	categories, err := s.CategoryService.ListCategories(actor)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryRecord, len(categories))
	for i, c := range categories {
		out[i] = CategoryRecord{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	return out, nil
}

func (s *RecordService) Test(actor Actor, id uint) (*TestRecord, error) {
	test, err := s.TestService.loadVisible(actor, id, true)
	if err != nil {
		return nil, err
	}
	return newTestRecord(test, actor.IsStaff()), nil
}

func newTestRecord(test *model.Test, withCorrectness bool) *TestRecord {
	rec := &TestRecord{
		ID:                test.ID,
		Title:             test.Title,
		Description:       test.Description,
		Difficulty:        test.Difficulty,
		DurationInMinutes: test.DurationInMinutes,
		Image:             test.Image,
		Status:            test.Status,
		NumberOfQuestions: len(test.Questions),
		Questions:         make([]QuestionRecord, len(test.Questions)),
	}
	if test.Creator != nil {
		rec.Creator = test.Creator.Username
	}
	if test.Category != nil {
		rec.Category = test.Category.Name
	}

	for i, q := range test.Questions {
		qr := QuestionRecord{ID: q.ID, Text: q.Text, Answers: make([]AnswerRecord, len(q.Answers))}
		for j, a := range q.Answers {
			ar := AnswerRecord{ID: a.ID, Text: a.Text}
			if withCorrectness {
				correct := a.IsCorrect
				ar.IsCorrect = &correct
			}
			qr.Answers[j] = ar
		}
		rec.Questions[i] = qr
	}
	return rec
}

func (s *RecordService) Attempt(actor Actor, id uint) (*AttemptRecord, error) {
	view, err := s.AttemptService.GetResult(actor, id)
	if err != nil {
		return nil, err
	}
	return newAttemptRecord(view.Attempt), nil
}

func newAttemptRecord(a *model.TestAttempt) *AttemptRecord {
	rec := &AttemptRecord{
		ID:              a.ID,
		TestID:          a.TestID,
		Score:           a.Score,
		CompletedAt:     a.CompletedAt,
		SelectedAnswers: make([]uint, len(a.SelectedAnswers)),
	}
	if a.User != nil {
		rec.User = UserRecord{ID: a.User.ID, Username: a.User.Username, Email: a.User.Email}
	}
	if a.Test != nil {
		rec.Test = a.Test.Title
	}
	for i, ans := range a.SelectedAnswers {
		rec.SelectedAnswers[i] = ans.ID
	}
	return rec
}
