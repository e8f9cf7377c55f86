package service

import (
	"testhub_backend/internal/model"
	"testhub_backend/internal/util"
)

// Selections 题目ID -> 用户选择的选项ID，未作答的题目不出现
type Selections map[uint]uint

type ScoreResult struct {
	TotalQuestions    int
	CorrectCount      int
	Score             float64
	SelectedAnswerIDs []uint
	// Anomalies 没有唯一正确选项、因此无法得分的题目
	Anomalies []uint
}

// correctAnswerID 返回唯一的正确选项。没有或多于一个时 ok 为 false。
func correctAnswerID(q *model.Question) (uint, bool) {
	var id uint
	found := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			id = a.ID
			found++
		}
	}
	return id, found == 1
}

func belongsTo(q *model.Question, answerID uint) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// ScoreTest 按题比对用户选择与正确选项，得分 = 正确数 / 总题数 * 100，无题目时为 0。
// 选择了不属于该题的选项返回 util.ErrInvalidSelection。
func ScoreTest(questions []model.Question, selections Selections) (*ScoreResult, error) {
	index := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		index[questions[i].ID] = &questions[i]
	}
	for qid, aid := range selections {
		q, ok := index[qid]
		if !ok || !belongsTo(q, aid) {
			return nil, util.ErrInvalidSelection
		}
	}

	res := &ScoreResult{
		TotalQuestions:    len(questions),
		SelectedAnswerIDs: make([]uint, 0, len(selections)),
	}

	for i := range questions {
		q := &questions[i]
		correctID, ok := correctAnswerID(q)
		if !ok {
			res.Anomalies = append(res.Anomalies, q.ID)
		}

		selected, answered := selections[q.ID]
		if !answered {
			continue
		}
		res.SelectedAnswerIDs = append(res.SelectedAnswerIDs, selected)

		if ok && selected == correctID {
			res.CorrectCount++
		}
	}

	if res.TotalQuestions > 0 {
		res.Score = float64(res.CorrectCount) / float64(res.TotalQuestions) * 100
	}
	return res, nil
}
