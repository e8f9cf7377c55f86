package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuestionService struct {
	DB             *gorm.DB
	TestRepo       *repository.TestRepository
	QuestionRepo   *repository.QuestionRepository
	maxImportBytes atomic.Int64
}

func NewQuestionService(db *gorm.DB, maxImportBytes int64) *QuestionService {
	s := &QuestionService{
		DB:           db,
		TestRepo:     repository.NewTestRepository(db),
		QuestionRepo: repository.NewQuestionRepository(db),
	}
	s.SetMaxImportBytes(maxImportBytes)
	return s
}

// SetMaxImportBytes 配置热更新时调用
func (s *QuestionService) SetMaxImportBytes(n int64) {
	if n > 0 {
		s.maxImportBytes.Store(n)
	}
}

type AnswerInput struct {
	Text      string
	IsCorrect bool
}

type QuestionInput struct {
	Text    string
	Answers []AnswerInput
}

// QuestionResult 新增或删除题目后试卷的最新状态
type QuestionResult struct {
	Question   *model.Question  `json:"question,omitempty"`
	TestID     uint             `json:"testId"`
	TestStatus model.TestStatus `json:"testStatus"`
}

// validateQuestionForm 单题录入的校验：空白选项行忽略，勾选了正确但没有内容的行报错，
// 保留的选项中必须恰好一个正确。与批量导入的逐项结构校验相互独立。
func validateQuestionForm(in QuestionInput) (*model.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Message: "question text is required"}
	}

	q := &model.Question{Text: text}
	correct := 0
	for i, a := range in.Answers {
		at := strings.TrimSpace(a.Text)
		if at == "" {
			if a.IsCorrect {
				return nil, &ValidationError{Field: "answers", Message: "answer #" + strconv.Itoa(i+1) + " is marked correct but has no text"}
			}
			continue
		}
		if a.IsCorrect {
			correct++
		}
		q.Answers = append(q.Answers, model.Answer{Text: at, IsCorrect: a.IsCorrect})
	}

	if len(q.Answers) == 0 {
		return nil, &ValidationError{Field: "answers", Message: "at least one answer is required"}
	}
	if correct != 1 {
		return nil, &ValidationError{Field: "answers", Message: "you must select exactly one correct answer for the question"}
	}
	return q, nil
}

func (s *QuestionService) findTest(repo *repository.TestRepository, testID uint) (*model.Test, error) {
	test, err := repo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

// AddQuestion 在同一事务内写入题目、选项并重新推导试卷状态
func (s *QuestionService) AddQuestion(ctx context.Context, actor Actor, testID uint, in QuestionInput) (*QuestionResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var result *QuestionResult
	var change statusChange
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		test, err := s.findTest(s.TestRepo.WithTx(tx), testID)
		if err != nil {
			return err
		}

		q, err := validateQuestionForm(in)
		if err != nil {
			return err
		}
		q.TestID = test.ID

		if err := s.QuestionRepo.WithTx(tx).Create(q); err != nil {
			return err
		}
		if change, err = syncTestStatus(tx, test); err != nil {
			return err
		}

		result = &QuestionResult{Question: q, TestID: test.ID, TestStatus: test.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	change.report()
	return result, nil
}

// DeleteQuestion 教职人员中仅试卷创建者或超级管理员可删除
func (s *QuestionService) DeleteQuestion(ctx context.Context, actor Actor, questionID uint) (*QuestionResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var result *QuestionResult
	var change statusChange
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := s.QuestionRepo.WithTx(tx)
		q, err := questions.FindByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		test, err := s.findTest(s.TestRepo.WithTx(tx), q.TestID)
		if err != nil {
			return err
		}
		if test.CreatorID != actor.UserID && !actor.IsSuperuser() {
			return util.ErrPermissionDenied
		}

		if err := questions.Delete(q.ID); err != nil {
			return err
		}
		if change, err = syncTestStatus(tx, test); err != nil {
			return err
		}

		result = &QuestionResult{TestID: test.ID, TestStatus: test.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	change.report()

	logger.Log.Info("question deleted",
		zap.Uint("question_id", questionID),
		zap.Uint("test_id", result.TestID),
		zap.String("actor", actor.Username),
	)
	return result, nil
}
