package service

import (
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/pkg/logger"
	"testhub_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinQuestionsForPublish 试卷达到该题数后自动发布
const MinQuestionsForPublish = 15

// DeriveStatus 根据题目数量计算试卷状态
func DeriveStatus(questionCount int64) model.TestStatus {
	if questionCount >= MinQuestionsForPublish {
		return model.TestPublished
	}
	return model.TestDraft
}

// statusChange 记录一次事务内的状态推导结果，提交后才上报
type statusChange struct {
	TestID uint
	Count  int64
	From   model.TestStatus
	To     model.TestStatus
}

func (c statusChange) changed() bool {
	return c.From != c.To
}

// report 只能在事务提交之后调用
func (c statusChange) report() {
	if !c.changed() {
		return
	}
	logger.Log.Info("test status derived",
		zap.Uint("test_id", c.TestID),
		zap.Int64("question_count", c.Count),
		zap.String("from", string(c.From)),
		zap.String("to", string(c.To)),
	)
	monitoring.StatusTransitions.WithLabelValues("derived", string(c.To)).Inc()
}

// syncTestStatus 重新统计题目数量并推导状态，只有状态变化时才写库。
// 每次新增或删除题目后在同一事务内调用，返回值交给调用方在提交后 report。
func syncTestStatus(tx *gorm.DB, test *model.Test) (statusChange, error) {
	repo := repository.NewTestRepository(tx)
	change := statusChange{TestID: test.ID, From: test.Status, To: test.Status}

	count, err := repo.CountQuestions(test.ID)
	if err != nil {
		return change, err
	}
	change.Count = count

	next := DeriveStatus(count)
	if test.Status == next {
		return change, nil
	}

	if err := repo.UpdateStatus(test.ID, next); err != nil {
		return change, err
	}

	test.Status = next
	change.To = next
	return change, nil
}

// toggledStatus 手动切换：无视题目数量直接取反
func toggledStatus(current model.TestStatus) model.TestStatus {
	if current == model.TestDraft {
		return model.TestPublished
	}
	return model.TestDraft
}
