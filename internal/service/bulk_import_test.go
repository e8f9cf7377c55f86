package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testhub_backend/internal/model"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

const threeQuestions = `[
  {"text": "2 + 2 = ?", "answers": [{"text": "4", "is_correct": true}, {"text": "5"}]},
  {"text": "Capital of France?", "answers": [{"text": "Paris", "is_correct": true}, {"text": "Rome", "is_correct": false}]},
  {"text": "Go keyword for goroutines?", "answers": [{"text": "go", "is_correct": true}, {"text": "async"}, {"text": "spawn"}]}
]`

func TestBulkImportValidDocument(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	test := createTest(t, db, teacher, model.TestDraft)
	seedQuestions(t, db, test.ID, 2)
	svc := NewQuestionService(db, 1<<20)

	res, err := svc.BulkImport(bg, teacher, test.ID, "questions.JSON", strings.NewReader(threeQuestions))
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if res.Added != 3 {
		t.Errorf("added = %d, want 3", res.Added)
	}

	qs, err := svc.QuestionRepo.ListByTest(test.ID)
	if err != nil {
		t.Fatalf("ListByTest: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("question count = %d, want 5", len(qs))
	}
	last := qs[4]
	if last.Text != "Go keyword for goroutines?" || len(last.Answers) != 3 {
		t.Errorf("last question = %q with %d answers", last.Text, len(last.Answers))
	}
	correct := 0
	for _, a := range last.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		t.Errorf("correct answers = %d, want 1", correct)
	}
}

func TestBulkImportRollsBackWholeBatch(t *testing.T) {
	zeroCorrect := `[
	  {"text": "ok", "answers": [{"text": "a", "is_correct": true}]},
	  {"text": "ok too", "answers": [{"text": "a", "is_correct": true}, {"text": "b"}]},
	  {"text": "broken", "answers": [{"text": "a"}, {"text": "b"}]}
	]`
	twoCorrect := strings.Replace(zeroCorrect, `{"text": "a"}, {"text": "b"}`, `{"text": "a", "is_correct": true}, {"text": "b", "is_correct": true}`, 1)

	tests := []struct {
		name     string
		doc      string
		wantKind ImportErrorKind
		wantIdx  int
	}{
		{"element with zero correct answers", zeroCorrect, ImportValidation, 3},
		{"element with two correct answers", twoCorrect, ImportValidation, 3},
		{"missing text", `[{"answers": [{"text": "a", "is_correct": true}]}]`, ImportValidation, 1},
		{"answers not a list", `[{"text": "q", "answers": "a"}]`, ImportValidation, 1},
		{"empty answers", `[{"text": "q", "answers": []}]`, ImportValidation, 1},
		{"element not an object", `[{"text": "q", "answers": [{"text": "a", "is_correct": true}]}, 42]`, ImportValidation, 2},
		{"is_correct not a bool", `[{"text": "q", "answers": [{"text": "a", "is_correct": "yes"}]}]`, ImportValidation, 1},
		{"is_correct string true", `[{"text": "q", "answers": [{"text": "a", "is_correct": "true"}]}]`, ImportValidation, 1},
		{"is_correct null", `[{"text": "q", "answers": [{"text": "a", "is_correct": true}, {"text": "b", "is_correct": null}]}]`, ImportValidation, 1},
		{"answer without text", `[{"text": "q", "answers": [{"is_correct": true}]}]`, ImportValidation, 1},
		{"root is an object", `{"text": "q", "answers": []}`, ImportValidation, 0},
		{"root is null", `null`, ImportValidation, 0},
		{"syntax error", `[{"text": "q", "answers": [}]`, ImportMalformedDocument, 0},
		{"not utf-8", "[{\"text\": \"\xff\xfe\"}]", ImportMalformedDocument, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			teacher := createUser(t, db, "teacher", model.Teacher)
			test := createTest(t, db, teacher, model.TestDraft)
			svc := NewQuestionService(db, 1<<20)

			_, err := svc.BulkImport(bg, teacher, test.ID, "questions.json", strings.NewReader(tt.doc))
			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *ImportError", err)
			}
			if ie.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", ie.Kind, tt.wantKind)
			}
			if ie.Index != tt.wantIdx {
				t.Errorf("index = %d, want %d", ie.Index, tt.wantIdx)
			}
			if ie.UserMessage() == "" {
				t.Error("empty user message")
			}
			if n := countRows(t, db, "questions"); n != 0 {
				t.Errorf("questions persisted after failed import: %d", n)
			}
			if n := countRows(t, db, "answers"); n != 0 {
				t.Errorf("answers persisted after failed import: %d", n)
			}
		})
	}
}

func TestBulkImportPublishesAtThreshold(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	test := createTest(t, db, teacher, model.TestDraft)
	svc := NewQuestionService(db, 1<<20)

	items := make([]string, MinQuestionsForPublish)
	for i := range items {
		items[i] = fmt.Sprintf(`{"text": "q%d", "answers": [{"text": "a", "is_correct": true}, {"text": "b"}]}`, i)
	}
	doc := "[" + strings.Join(items, ",") + "]"

	res, err := svc.BulkImport(bg, teacher, test.ID, "batch.json", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if res.TestStatus != model.TestPublished {
		t.Errorf("status = %s, want published", res.TestStatus)
	}
	if got := reloadStatus(t, db, test.ID); got != model.TestPublished {
		t.Errorf("persisted status = %s, want published", got)
	}
}

func TestBulkImportFileChecks(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	test := createTest(t, db, teacher, model.TestDraft)
	svc := NewQuestionService(db, 64)

	t.Run("non-staff", func(t *testing.T) {
		_, err := svc.BulkImport(bg, student, test.ID, "q.json", strings.NewReader(threeQuestions))
		if !errors.Is(err, util.ErrPermissionDenied) {
			t.Fatalf("err = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := svc.BulkImport(bg, teacher, test.ID, "q.txt", strings.NewReader(threeQuestions))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("err = %v, want *ValidationError", err)
		}
	})

	t.Run("unknown test", func(t *testing.T) {
		_, err := svc.BulkImport(bg, teacher, 9999, "q.json", strings.NewReader(threeQuestions))
		if !errors.Is(err, util.ErrTestNotFound) {
			t.Fatalf("err = %v, want ErrTestNotFound", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := svc.BulkImport(bg, teacher, test.ID, "q.json", strings.NewReader(threeQuestions))
		var ie *ImportError
		if !errors.As(err, &ie) || ie.Kind != ImportValidation {
			t.Fatalf("err = %v, want validation ImportError", err)
		}
	})

	if n := countRows(t, db, "questions"); n != 0 {
		t.Errorf("questions persisted: %d", n)
	}
}

func TestParseImportItemPreviewTruncates(t *testing.T) {
	long := strings.Repeat("x", 80)
	raw := []byte(fmt.Sprintf(`{"text": %q, "answers": [{"text": "a"}]}`, long))

	_, err := parseImportItem(7, raw)
	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *ImportError", err)
	}
	want := "question #7 ('" + strings.Repeat("x", 30) + "...') must have exactly one correct answer"
	if ie.Err.Error() != want {
		t.Errorf("message = %q, want %q", ie.Err.Error(), want)
	}
}

func TestBulkImportRollbackReportsNoTransition(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	test := createTest(t, db, teacher, model.TestDraft)
	svc := NewQuestionService(db, 1<<20)

	items := make([]string, MinQuestionsForPublish+1)
	for i := range items {
		items[i] = fmt.Sprintf(`{"text": "q%d", "answers": [{"text": "a", "is_correct": true}, {"text": "b"}]}`, i)
	}
	// 第 16 题有两个正确答案，此时前 15 题已把试卷推到 published
	items[MinQuestionsForPublish] = `{"text": "q15", "answers": [{"text": "a", "is_correct": true}, {"text": "b", "is_correct": true}]}`
	doc := "[" + strings.Join(items, ",") + "]"

	published := monitoring.StatusTransitions.WithLabelValues("derived", string(model.TestPublished))
	before := testutil.ToFloat64(published)

	_, err := svc.BulkImport(bg, teacher, test.ID, "batch.json", strings.NewReader(doc))
	var ie *ImportError
	if !errors.As(err, &ie) || ie.Kind != ImportValidation || ie.Index != MinQuestionsForPublish+1 {
		t.Fatalf("err = %v, want validation error on element %d", err, MinQuestionsForPublish+1)
	}
	if n := countRows(t, db, "questions"); n != 0 {
		t.Errorf("questions persisted: %d", n)
	}
	if got := reloadStatus(t, db, test.ID); got != model.TestDraft {
		t.Errorf("status = %s, want draft", got)
	}
	if delta := testutil.ToFloat64(published) - before; delta != 0 {
		t.Errorf("published transitions recorded for rolled back import: %v", delta)
	}

	// 成功的导入在提交后才计数
	doc = "[" + strings.Join(items[:MinQuestionsForPublish], ",") + "]"
	if _, err := svc.BulkImport(bg, teacher, test.ID, "batch.json", strings.NewReader(doc)); err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if delta := testutil.ToFloat64(published) - before; delta != 1 {
		t.Errorf("published transitions = %v, want 1", delta)
	}
}

func TestBulkImportUnexpectedFailureRollsBack(t *testing.T) {
	tests := []struct {
		name string
		fail func(tx *gorm.DB)
	}{
		{"insert error", func(tx *gorm.DB) { tx.AddError(errors.New("boom")) }},
		{"panic", func(tx *gorm.DB) { panic("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			teacher := createUser(t, db, "teacher", model.Teacher)
			test := createTest(t, db, teacher, model.TestDraft)
			svc := NewQuestionService(db, 1<<20)

			// 第二道题写入时失败
			inserts := 0
			err := db.Callback().Create().Before("gorm:create").Register("test:fail_second_question", func(tx *gorm.DB) {
				if tx.Statement.Table != "questions" {
					return
				}
				inserts++
				if inserts == 2 {
					tt.fail(tx)
				}
			})
			if err != nil {
				t.Fatalf("register callback: %v", err)
			}

			_, err = svc.BulkImport(bg, teacher, test.ID, "questions.json", strings.NewReader(threeQuestions))
			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *ImportError", err)
			}
			if ie.Kind != ImportUnexpected {
				t.Errorf("kind = %s, want %s", ie.Kind, ImportUnexpected)
			}
			if n := countRows(t, db, "questions"); n != 0 {
				t.Errorf("questions persisted: %d", n)
			}
			if n := countRows(t, db, "answers"); n != 0 {
				t.Errorf("answers persisted: %d", n)
			}
			if got := reloadStatus(t, db, test.ID); got != model.TestDraft {
				t.Errorf("status = %s, want draft", got)
			}
		})
	}
}
