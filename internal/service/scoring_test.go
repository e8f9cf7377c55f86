package service

import (
	"errors"
	"testing"
	"testhub_backend/internal/model"
	"testhub_backend/internal/util"
)

// fixture 四道题，每题正确答案 ID 为 题号*10+1
func scoringFixture() []model.Question {
	qs := make([]model.Question, 4)
	for i := range qs {
		id := uint(i + 1)
		qs[i] = model.Question{
			ID: id,
			Answers: []model.Answer{
				{ID: id*10 + 1, QuestionID: id, IsCorrect: true},
				{ID: id*10 + 2, QuestionID: id},
				{ID: id*10 + 3, QuestionID: id},
			},
		}
	}
	return qs
}

func TestScoreTest(t *testing.T) {
	tests := []struct {
		name        string
		questions   []model.Question
		selections  Selections
		wantScore   float64
		wantCorrect int
		wantIDs     int
	}{
		{
			name:        "two of four correct, rest blank",
			questions:   scoringFixture(),
			selections:  Selections{1: 11, 2: 21},
			wantScore:   50,
			wantCorrect: 2,
			wantIDs:     2,
		},
		{
			name:        "two correct two wrong",
			questions:   scoringFixture(),
			selections:  Selections{1: 11, 2: 22, 3: 31, 4: 43},
			wantScore:   50,
			wantCorrect: 2,
			wantIDs:     4,
		},
		{
			name:        "all correct",
			questions:   scoringFixture(),
			selections:  Selections{1: 11, 2: 21, 3: 31, 4: 41},
			wantScore:   100,
			wantCorrect: 4,
			wantIDs:     4,
		},
		{
			name:       "nothing answered",
			questions:  scoringFixture(),
			selections: Selections{},
			wantScore:  0,
		},
		{
			name:       "no questions",
			questions:  nil,
			selections: Selections{},
			wantScore:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ScoreTest(tt.questions, tt.selections)
			if err != nil {
				t.Fatalf("ScoreTest: %v", err)
			}
			if res.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", res.Score, tt.wantScore)
			}
			if res.CorrectCount != tt.wantCorrect {
				t.Errorf("correct = %d, want %d", res.CorrectCount, tt.wantCorrect)
			}
			if len(res.SelectedAnswerIDs) != tt.wantIDs {
				t.Errorf("selected ids = %v, want %d entries", res.SelectedAnswerIDs, tt.wantIDs)
			}
		})
	}
}

func TestScoreTestAnomaliesGiveNoCredit(t *testing.T) {
	qs := scoringFixture()
	// 第一题没有正确答案，第二题有两个
	qs[0].Answers[0].IsCorrect = false
	qs[1].Answers[1].IsCorrect = true

	res, err := ScoreTest(qs, Selections{1: 11, 2: 21, 3: 31, 4: 41})
	if err != nil {
		t.Fatalf("ScoreTest: %v", err)
	}
	if res.CorrectCount != 2 {
		t.Errorf("correct = %d, want 2", res.CorrectCount)
	}
	if res.Score != 50 {
		t.Errorf("score = %v, want 50", res.Score)
	}
	if len(res.Anomalies) != 2 || res.Anomalies[0] != 1 || res.Anomalies[1] != 2 {
		t.Errorf("anomalies = %v, want [1 2]", res.Anomalies)
	}
	if len(res.SelectedAnswerIDs) != 4 {
		t.Errorf("selections of anomalous questions must still be recorded, got %v", res.SelectedAnswerIDs)
	}
}

func TestScoreTestRejectsForeignSelections(t *testing.T) {
	tests := []struct {
		name       string
		selections Selections
	}{
		{"answer from another question", Selections{1: 21}},
		{"unknown question", Selections{99: 11}},
		{"unknown answer", Selections{1: 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreTest(scoringFixture(), tt.selections)
			if !errors.Is(err, util.ErrInvalidSelection) {
				t.Fatalf("err = %v, want ErrInvalidSelection", err)
			}
		})
	}
}
