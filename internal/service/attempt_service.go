package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"
	"testhub_backend/pkg/monitoring"
	"testhub_backend/pkg/tracing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttemptService struct {
	DB           *gorm.DB
	TestRepo     *repository.TestRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
	Guard        SubmitGuard
	Stats        StatsCache
	allowRetakes atomic.Bool
}

func NewAttemptService(db *gorm.DB, guard SubmitGuard, stats StatsCache, allowRetakes bool) *AttemptService {
	if guard == nil {
		guard = NopSubmitGuard{}
	}
	if stats == nil {
		stats = nopStatsCache{}
	}
	s := &AttemptService{
		DB:           db,
		TestRepo:     repository.NewTestRepository(db),
		QuestionRepo: repository.NewQuestionRepository(db),
		AttemptRepo:  repository.NewAttemptRepository(db),
		Guard:        guard,
		Stats:        stats,
	}
	s.allowRetakes.Store(allowRetakes)
	return s
}

// SetAllowRetakes 配置热更新时调用
func (s *AttemptService) SetAllowRetakes(v bool) {
	s.allowRetakes.Store(v)
}

func (s *AttemptService) AllowRetakes() bool {
	return s.allowRetakes.Load()
}

// Submit 评分并写入一条作答记录。选择了不属于该题的选项时整个提交被拒绝，不产生任何记录。
func (s *AttemptService) Submit(ctx context.Context, actor Actor, testID uint, selections Selections) (*model.TestAttempt, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "AttemptService.Submit")
	defer span.End()

	release, err := s.Guard.Acquire(ctx, actor.UserID, testID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		attempt *model.TestAttempt
		result  *ScoreResult
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		test, err := s.TestRepo.WithTx(tx).FindWithQuestions(testID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrTestNotFound
			}
			return err
		}
		if !actor.IsStaff() && test.Status != model.TestPublished {
			return util.ErrTestNotPublished
		}

		attempts := s.AttemptRepo.WithTx(tx)
		if !s.AllowRetakes() {
			n, err := attempts.CountByUserAndTest(actor.UserID, test.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return util.ErrTestAlreadySubmitted
			}
		}

		result, err = ScoreTest(test.Questions, selections)
		if err != nil {
			return err
		}

		attempt = &model.TestAttempt{
			UserID:      actor.UserID,
			TestID:      test.ID,
			Score:       result.Score,
			CompletedAt: time.Now(),
		}
		for _, id := range result.SelectedAnswerIDs {
			attempt.SelectedAnswers = append(attempt.SelectedAnswers, model.Answer{ID: id})
		}
		return attempts.Create(attempt)
	})
	if err != nil {
		return nil, err
	}

	for _, qid := range result.Anomalies {
		logger.Log.Warn("question has no single correct answer, no credit awarded",
			zap.Uint("question_id", qid),
			zap.Uint("test_id", testID),
			zap.Uint("attempt_id", attempt.ID),
		)
		monitoring.ScoringAnomalies.Inc()
	}
	monitoring.AttemptsSubmitted.Inc()
	monitoring.AttemptScores.Observe(attempt.Score)
	s.Stats.Invalidate(ctx)

	logger.Log.Info("attempt recorded",
		zap.Uint("attempt_id", attempt.ID),
		zap.Uint("user_id", actor.UserID),
		zap.Uint("test_id", testID),
		zap.Float64("score", attempt.Score),
	)
	return attempt, nil
}

// ReviewItem 单题回顾：用户所选与正确选项
type ReviewItem struct {
	QuestionID       uint   `json:"questionId"`
	Text             string `json:"text"`
	SelectedAnswerID *uint  `json:"selectedAnswerId"`
	SelectedText     string `json:"selectedText,omitempty"`
	CorrectAnswerID  *uint  `json:"correctAnswerId"`
	CorrectText      string `json:"correctText,omitempty"`
	IsCorrect        bool   `json:"isCorrect"`
}

type ResultView struct {
	Attempt *model.TestAttempt `json:"attempt"`
	Correct int                `json:"correct"`
	Total   int                `json:"total"`
	Review  []ReviewItem       `json:"review"`
}

// GetResult 只有作答者本人可以查看
func (s *AttemptService) GetResult(actor Actor, attemptID uint) (*ResultView, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}

	questions, err := s.QuestionRepo.ListByTest(attempt.TestID)
	if err != nil {
		return nil, err
	}

	return buildResultView(attempt, questions), nil
}

func buildResultView(attempt *model.TestAttempt, questions []model.Question) *ResultView {
	selected := make(map[uint]*model.Answer, len(attempt.SelectedAnswers))
	for i := range attempt.SelectedAnswers {
		a := &attempt.SelectedAnswers[i]
		selected[a.QuestionID] = a
	}

	view := &ResultView{Attempt: attempt, Total: len(questions), Review: make([]ReviewItem, 0, len(questions))}
	for i := range questions {
		q := &questions[i]
		item := ReviewItem{QuestionID: q.ID, Text: q.Text}

		if a, ok := selected[q.ID]; ok {
			id := a.ID
			item.SelectedAnswerID = &id
			item.SelectedText = a.Text
		}
		if cid, ok := correctAnswerID(q); ok {
			item.CorrectAnswerID = &cid
			for _, a := range q.Answers {
				if a.ID == cid {
					item.CorrectText = a.Text
				}
			}
			item.IsCorrect = item.SelectedAnswerID != nil && *item.SelectedAnswerID == cid
		}
		if item.IsCorrect {
			view.Correct++
		}
		view.Review = append(view.Review, item)
	}
	return view
}
