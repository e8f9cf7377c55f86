package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testhub_backend/internal/config"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/util"
)

func TestListTestsVisibility(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	createTest(t, db, teacher, model.TestPublished)
	createTest(t, db, teacher, model.TestDraft)
	createTest(t, db, teacher, model.TestDraft)
	svc := NewTestService(db, nil)

	tests := []struct {
		name  string
		actor Actor
		want  int64
	}{
		{"student sees published only", student, 1},
		{"staff sees everything", teacher, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := svc.ListTests(tt.actor, repository.TestFilter{}, 1, 20)
			if err != nil {
				t.Fatalf("ListTests: %v", err)
			}
			if total != tt.want || int64(len(rows)) != tt.want {
				t.Errorf("total = %d rows = %d, want %d", total, len(rows), tt.want)
			}
		})
	}

	if _, _, err := svc.ListTests(student, repository.TestFilter{Difficulty: "impossible"}, 1, 20); err == nil {
		t.Error("unknown difficulty accepted")
	}
	if _, _, err := svc.ListTests(Actor{}, repository.TestFilter{}, 1, 20); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("anonymous: err = %v, want ErrPermissionDenied", err)
	}
}

func TestDraftHiddenFromRegularUsers(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	draft := createTest(t, db, teacher, model.TestDraft)
	seedQuestions(t, db, draft.ID, 2)
	svc := NewTestService(db, nil)

	if _, err := svc.GetTest(student, draft.ID); !errors.Is(err, util.ErrTestNotPublished) {
		t.Errorf("GetTest: err = %v, want ErrTestNotPublished", err)
	}
	if _, err := svc.TakeTest(student, draft.ID); !errors.Is(err, util.ErrTestNotPublished) {
		t.Errorf("TakeTest: err = %v, want ErrTestNotPublished", err)
	}
	if _, err := svc.ManageTest(student, draft.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("ManageTest: err = %v, want ErrPermissionDenied", err)
	}

	detail, err := svc.GetTest(teacher, draft.ID)
	if err != nil {
		t.Fatalf("staff GetTest: %v", err)
	}
	if detail.NumberOfQuestions != 2 {
		t.Errorf("number of questions = %d, want 2", detail.NumberOfQuestions)
	}
}

func TestTakeTestOrdersQuestionsByID(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	test := createTest(t, db, teacher, model.TestPublished)
	qs := seedQuestions(t, db, test.ID, 3)
	svc := NewTestService(db, nil)

	view, err := svc.TakeTest(student, test.ID)
	if err != nil {
		t.Fatalf("TakeTest: %v", err)
	}
	if len(view.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(view.Questions))
	}
	for i, q := range view.Questions {
		if q.ID != qs[i].ID {
			t.Errorf("question %d id = %d, want %d", i, q.ID, qs[i].ID)
		}
		if len(q.Answers) != 3 {
			t.Errorf("question %d answers = %d, want 3", i, len(q.Answers))
		}
	}
}

func TestCreateTest(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	svc := NewTestService(db, nil)

	test, err := svc.CreateTest(bg, teacher, CreateTestInput{Title: "  Concurrency  ", DurationInMinutes: 20})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if test.Status != model.TestDraft {
		t.Errorf("status = %s, want draft", test.Status)
	}
	if test.Difficulty != model.Intermediate {
		t.Errorf("difficulty = %s, want intermediate", test.Difficulty)
	}
	if test.Title != "Concurrency" {
		t.Errorf("title = %q", test.Title)
	}

	missing := uint(42)
	tests := []struct {
		name    string
		actor   Actor
		in      CreateTestInput
		wantErr error
	}{
		{"student", student, CreateTestInput{Title: "x", DurationInMinutes: 1}, util.ErrPermissionDenied},
		{"unknown category", teacher, CreateTestInput{Title: "x", DurationInMinutes: 1, CategoryID: &missing}, util.ErrCategoryNotFound},
		{"image without storage", teacher, CreateTestInput{Title: "x", DurationInMinutes: 1, Image: strings.NewReader("png")}, util.ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTest(bg, tt.actor, tt.in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	invalid := []CreateTestInput{
		{Title: "", DurationInMinutes: 10},
		{Title: "x", DurationInMinutes: 0},
		{Title: "x", DurationInMinutes: 10, Difficulty: "impossible"},
	}
	for _, in := range invalid {
		var verr *ValidationError
		if _, err := svc.CreateTest(bg, teacher, in); !errors.As(err, &verr) {
			t.Errorf("input %+v: err = %v, want *ValidationError", in, err)
		}
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newLocalImages(t *testing.T) (*ImageService, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: root},
		Image:   config.ImageConfig{Processor: "native", Width: 300, Height: 200, MaxBytes: 5 << 20},
	}
	return NewImageService(&cfg.Image, NewStorageService(cfg)), root
}

func TestCreateTestWithImageAndDelete(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	admin := createUser(t, db, "admin", model.Admin)
	images, root := newLocalImages(t)
	svc := NewTestService(db, images)

	test, err := svc.CreateTest(bg, teacher, CreateTestInput{
		Title:             "With cover",
		DurationInMinutes: 15,
		Image:             bytes.NewReader(encodePNG(t, 640, 480)),
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if !strings.HasPrefix(test.ImageKey, "test_images/") || !strings.HasSuffix(test.ImageKey, ".png") {
		t.Fatalf("image key = %q", test.ImageKey)
	}

	stored := filepath.Join(root, filepath.FromSlash(test.ImageKey))
	f, err := os.Open(stored)
	if err != nil {
		t.Fatalf("open stored image: %v", err)
	}
	cfg, err := png.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("stored size = %dx%d, want 300x200", cfg.Width, cfg.Height)
	}

	if _, err := svc.DeleteTest(bg, teacher, test.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("teacher delete: err = %v, want ErrPermissionDenied", err)
	}
	title, err := svc.DeleteTest(bg, admin, test.ID)
	if err != nil {
		t.Fatalf("DeleteTest: %v", err)
	}
	if title != "With cover" {
		t.Errorf("title = %q", title)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("stored image still present: %v", err)
	}
}

func TestCreateTestRejectsNonImage(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	images, _ := newLocalImages(t)
	svc := NewTestService(db, images)

	_, err := svc.CreateTest(bg, teacher, CreateTestInput{
		Title:             "x",
		DurationInMinutes: 1,
		Image:             strings.NewReader("definitely not an image"),
	})
	if !errors.Is(err, util.ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
	if n := countRows(t, db, "tests"); n != 0 {
		t.Errorf("tests = %d, want 0", n)
	}
}

func TestDeleteTestRemovesDependents(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	admin := createUser(t, db, "admin", model.Admin)
	student := createUser(t, db, "student", model.Student)
	test := createTest(t, db, teacher, model.TestPublished)
	other := createTest(t, db, teacher, model.TestPublished)
	qs := seedQuestions(t, db, test.ID, 3)
	seedQuestions(t, db, other.ID, 1)

	attempts := NewAttemptService(db, nil, nil, true)
	if _, err := attempts.Submit(bg, student, test.ID, Selections{qs[0].ID: qs[0].Answers[0].ID}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	svc := NewTestService(db, nil)
	if _, err := svc.DeleteTest(bg, admin, test.ID); err != nil {
		t.Fatalf("DeleteTest: %v", err)
	}
	if _, err := svc.DeleteTest(bg, admin, test.ID); !errors.Is(err, util.ErrTestNotFound) {
		t.Errorf("second delete: err = %v, want ErrTestNotFound", err)
	}

	want := map[string]int64{
		"tests":                         1,
		"questions":                     1,
		"answers":                       3,
		"test_attempts":                 0,
		"test_attempt_selected_answers": 0,
	}
	for table, n := range want {
		if got := countRows(t, db, table); got != n {
			t.Errorf("%s = %d, want %d", table, got, n)
		}
	}
}

func TestCategoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	admin := createUser(t, db, "admin", model.Admin)
	student := createUser(t, db, "student", model.Student)
	svc := NewCategoryService(repository.NewCategoryRepository(db))

	if _, err := svc.CreateCategory(student, "Go", ""); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("student create: err = %v, want ErrPermissionDenied", err)
	}

	cat, err := svc.CreateCategory(teacher, "Go Programming", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.Slug != "go-programming" {
		t.Errorf("slug = %q, want go-programming", cat.Slug)
	}

	if _, err := svc.CreateCategory(teacher, "go programming", "other"); !errors.Is(err, util.ErrCategoryExists) {
		t.Errorf("duplicate name: err = %v, want ErrCategoryExists", err)
	}
	var verr *ValidationError
	if _, err := svc.CreateCategory(teacher, "Rust", "Bad Slug"); !errors.As(err, &verr) {
		t.Errorf("bad slug: err = %v, want *ValidationError", err)
	}

	test := createTest(t, db, teacher, model.TestPublished)
	if err := db.Model(test).Update("category_id", cat.ID).Error; err != nil {
		t.Fatalf("assign category: %v", err)
	}

	if err := svc.DeleteCategory(teacher, cat.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("teacher delete: err = %v, want ErrPermissionDenied", err)
	}
	if err := svc.DeleteCategory(admin, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if err := svc.DeleteCategory(admin, cat.ID); !errors.Is(err, util.ErrCategoryNotFound) {
		t.Errorf("second delete: err = %v, want ErrCategoryNotFound", err)
	}

	var reloaded model.Test
	if err := db.First(&reloaded, test.ID).Error; err != nil {
		t.Fatalf("test removed with its category: %v", err)
	}
	if reloaded.CategoryID != nil {
		t.Errorf("category_id = %v, want nil", *reloaded.CategoryID)
	}
}

func TestRecordsHideCorrectnessFromStudents(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	student := createUser(t, db, "student", model.Student)
	test := createTest(t, db, teacher, model.TestPublished)
	seedQuestions(t, db, test.ID, 1)

	records := NewRecordService(
		NewCategoryService(repository.NewCategoryRepository(db)),
		NewTestService(db, nil),
		NewAttemptService(db, nil, nil, true),
	)

	rec, err := records.Test(student, test.ID)
	if err != nil {
		t.Fatalf("student record: %v", err)
	}
	if rec.Creator != "teacher" || rec.NumberOfQuestions != 1 {
		t.Errorf("record = %+v", rec)
	}
	for _, a := range rec.Questions[0].Answers {
		if a.IsCorrect != nil {
			t.Fatalf("is_correct exposed to student: %+v", a)
		}
	}

	rec, err = records.Test(teacher, test.ID)
	if err != nil {
		t.Fatalf("staff record: %v", err)
	}
	if a := rec.Questions[0].Answers[0]; a.IsCorrect == nil || !*a.IsCorrect {
		t.Errorf("staff record answer = %+v, want is_correct true", a)
	}
}

func TestDashboard(t *testing.T) {
	db := newTestDB(t)
	teacher := createUser(t, db, "teacher", model.Teacher)
	alice := createUser(t, db, "alice", model.Student)
	bob := createUser(t, db, "bob", model.Student)
	test := createTest(t, db, teacher, model.TestPublished)
	seedQuestions(t, db, test.ID, 1)

	attempts := NewAttemptService(db, nil, nil, true)
	for _, a := range []Actor{alice, alice, bob} {
		if _, err := attempts.Submit(bg, a, test.ID, Selections{}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	dash := NewDashboardService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewAttemptRepository(db),
		nil, 2,
	)

	staff, err := dash.GetDashboard(bg, teacher)
	if err != nil {
		t.Fatalf("staff dashboard: %v", err)
	}
	s := staff.Staff
	if s == nil || s.StudentCount != 2 || s.TestCount != 1 || s.AttemptCount != 3 || len(s.RecentAttempts) != 2 {
		t.Errorf("staff stats = %+v", s)
	}

	own, err := dash.GetDashboard(bg, alice)
	if err != nil {
		t.Fatalf("student dashboard: %v", err)
	}
	if own.Staff != nil || len(own.Attempts) != 2 {
		t.Errorf("student dashboard = %+v", own)
	}
	for _, a := range own.Attempts {
		if a.UserID != alice.UserID {
			t.Errorf("foreign attempt in dashboard: %+v", a)
		}
	}
}
