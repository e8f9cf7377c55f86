package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"
	"testhub_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TestService struct {
	DB           *gorm.DB
	TestRepo     *repository.TestRepository
	CategoryRepo *repository.CategoryRepository
	Images       *ImageService
}

func NewTestService(db *gorm.DB, images *ImageService) *TestService {
	return &TestService{
		DB:           db,
		TestRepo:     repository.NewTestRepository(db),
		CategoryRepo: repository.NewCategoryRepository(db),
		Images:       images,
	}
}

// TestDetail 试卷详情，附带题目数量
type TestDetail struct {
	*model.Test
	NumberOfQuestions int64 `json:"numberOfQuestions"`
}

// TakeAnswer 答题页的选项，不暴露正确与否
type TakeAnswer struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type TakeQuestion struct {
	ID      uint         `json:"id"`
	Text    string       `json:"text"`
	Answers []TakeAnswer `json:"answers"`
}

type TakeView struct {
	TestID            uint           `json:"testId"`
	Title             string         `json:"title"`
	DurationInMinutes int            `json:"durationInMinutes"`
	Questions         []TakeQuestion `json:"questions"`
}

type HomeSummary struct {
	PublishedTests int64                    `json:"publishedTests"`
	Categories     []model.Category         `json:"categories"`
	Latest         []repository.TestListRow `json:"latest"`
}

const homeLatestLimit = 6

// loadVisible 普通用户看不到草稿，与不存在的试卷同样处理
func (s *TestService) loadVisible(actor Actor, id uint, withQuestions bool) (*model.Test, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	var (
		test *model.Test
		err  error
	)
	if withQuestions {
		test, err = s.TestRepo.FindWithQuestions(id)
	} else {
		test, err = s.TestRepo.FindByID(id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	if !actor.IsStaff() && test.Status != model.TestPublished {
		return nil, util.ErrTestNotPublished
	}
	return test, nil
}

// Home 公开的首页数据
func (s *TestService) Home() (*HomeSummary, error) {
	latest, total, err := s.TestRepo.List(repository.TestFilter{PublishedOnly: true}, 1, homeLatestLimit)
	if err != nil {
		return nil, err
	}
	categories, err := s.CategoryRepo.List()
	if err != nil {
		return nil, err
	}
	return &HomeSummary{PublishedTests: total, Categories: categories, Latest: latest}, nil
}

// ListTests 教职人员可见全部试卷，普通用户只见已发布，新建的在前
func (s *TestService) ListTests(actor Actor, filter repository.TestFilter, page, limit int) ([]repository.TestListRow, int64, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, 0, err
	}
	if filter.Difficulty != "" && !model.Difficulty(filter.Difficulty).Valid() {
		return nil, 0, &ValidationError{Field: "difficulty", Message: "unknown difficulty"}
	}
	filter.PublishedOnly = !actor.IsStaff()
	return s.TestRepo.List(filter, page, limit)
}

func (s *TestService) GetTest(actor Actor, id uint) (*TestDetail, error) {
	test, err := s.loadVisible(actor, id, false)
	if err != nil {
		return nil, err
	}
	count, err := s.TestRepo.CountQuestions(test.ID)
	if err != nil {
		return nil, err
	}
	return &TestDetail{Test: test, NumberOfQuestions: count}, nil
}

// TakeTest 按 id 顺序返回题目和选项
func (s *TestService) TakeTest(actor Actor, id uint) (*TakeView, error) {
	test, err := s.loadVisible(actor, id, true)
	if err != nil {
		return nil, err
	}

	view := &TakeView{
		TestID:            test.ID,
		Title:             test.Title,
		DurationInMinutes: test.DurationInMinutes,
		Questions:         make([]TakeQuestion, len(test.Questions)),
	}
	for i, q := range test.Questions {
		answers := make([]TakeAnswer, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = TakeAnswer{ID: a.ID, Text: a.Text}
		}
		view.Questions[i] = TakeQuestion{ID: q.ID, Text: q.Text, Answers: answers}
	}
	return view, nil
}

type CreateTestInput struct {
	Title             string
	Description       string
	Difficulty        model.Difficulty
	DurationInMinutes int
	CategoryID        *uint
	// Image 可为 nil
	Image io.Reader
}

func (in *CreateTestInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if in.Difficulty == "" {
		in.Difficulty = model.Intermediate
	}
	if !in.Difficulty.Valid() {
		return &ValidationError{Field: "difficulty", Message: "difficulty must be beginner, intermediate or expert"}
	}
	if in.DurationInMinutes <= 0 {
		return &ValidationError{Field: "duration_in_minutes", Message: "duration must be a positive number of minutes"}
	}
	return nil
}

// CreateTest 新试卷总是草稿，封面图先处理上传再写库
func (s *TestService) CreateTest(ctx context.Context, actor Actor, in CreateTestInput) (*model.Test, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.CategoryID != nil {
		if _, err := s.CategoryRepo.FindByID(*in.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrCategoryNotFound
			}
			return nil, err
		}
	}

	test := &model.Test{
		CreatorID:         actor.UserID,
		CategoryID:        in.CategoryID,
		Title:             in.Title,
		Description:       in.Description,
		Difficulty:        in.Difficulty,
		DurationInMinutes: in.DurationInMinutes,
		Status:            model.TestDraft,
	}

	if in.Image != nil {
		if s.Images == nil {
			return nil, util.ErrInvalidImage
		}
		img, err := s.Images.StoreTestImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		test.Image = img.URL
		test.ImageKey = img.Key
	}

	if err := s.TestRepo.Create(test); err != nil {
		if test.ImageKey != "" {
			s.Images.Remove(ctx, test.ImageKey)
		}
		return nil, err
	}

	logger.Log.Info("test created", zap.Uint("test_id", test.ID), zap.String("actor", actor.Username))
	return test, nil
}

// ManageTest 管理页，包含选项正确与否
func (s *TestService) ManageTest(actor Actor, id uint) (*model.Test, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.loadVisible(actor, id, true)
}

// ToggleStatus 手动切换发布状态，不受题目数量约束，直到下一次题目增删重新推导
func (s *TestService) ToggleStatus(actor Actor, id uint) (*model.Test, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var test *model.Test
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.TestRepo.WithTx(tx)
		t, err := repo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrTestNotFound
			}
			return err
		}

		from := t.Status
		to := toggledStatus(from)
		if err := repo.UpdateStatus(t.ID, to); err != nil {
			return err
		}
		t.Status = to
		test = t

		logger.Log.Info("test status toggled",
			zap.Uint("test_id", t.ID),
			zap.String("actor", actor.Username),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.StatusTransitions.WithLabelValues("manual", string(test.Status)).Inc()
	return test, nil
}

// DeleteTest 仅超级管理员。删除成功后尽力清理封面图
func (s *TestService) DeleteTest(ctx context.Context, actor Actor, id uint) (string, error) {
	if err := requireSuperuser(actor); err != nil {
		return "", err
	}

	var title, imageKey string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.TestRepo.WithTx(tx)
		test, err := repo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrTestNotFound
			}
			return err
		}
		title, imageKey = test.Title, test.ImageKey
		return repo.Delete(test.ID)
	})
	if err != nil {
		return "", err
	}

	s.Images.Remove(ctx, imageKey)
	logger.Log.Info("test deleted", zap.Uint("test_id", id), zap.String("actor", actor.Username))
	return title, nil
}
