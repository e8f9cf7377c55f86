package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testhub_backend/internal/model"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"
	"testhub_backend/pkg/monitoring"
	"testhub_backend/pkg/tracing"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ImportErrorKind string

const (
	ImportMalformedDocument ImportErrorKind = "malformed_document"
	ImportValidation        ImportErrorKind = "validation"
	ImportUnexpected        ImportErrorKind = "unexpected"
)

const importSavepoint = "bulk_import"

// ImportError 批量导入失败。任何一种都会整体回滚。
// Index 为出错题目的序号（从 1 开始），0 表示整个文档。
type ImportError struct {
	Kind  ImportErrorKind
	Index int
	Err   error
}

func (e *ImportError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// UserMessage 给上传者看的提示，unexpected 不暴露内部细节
func (e *ImportError) UserMessage() string {
	switch e.Kind {
	case ImportMalformedDocument:
		return "Invalid JSON file. The file contains syntax errors."
	case ImportValidation:
		return "Data validation failed: " + e.Err.Error()
	default:
		return "An unexpected error occurred while importing questions. No questions were added."
	}
}

func malformed(err error) *ImportError {
	return &ImportError{Kind: ImportMalformedDocument, Err: err}
}

func invalid(index int, format string, args ...interface{}) *ImportError {
	return &ImportError{Kind: ImportValidation, Index: index, Err: fmt.Errorf(format, args...)}
}

type ImportResult struct {
	Added      int              `json:"added"`
	TestID     uint             `json:"testId"`
	TestStatus model.TestStatus `json:"testStatus"`
}

// readImportDocument 大小、编码、语法检查，返回根数组的各个元素
func readImportDocument(r io.Reader, limit int64) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &ImportError{Kind: ImportUnexpected, Err: err}
	}
	if int64(len(raw)) > limit {
		return nil, invalid(0, "the file is larger than %d bytes", limit)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		return nil, malformed(errors.New("file is not valid UTF-8"))
	}
	if !json.Valid(raw) {
		return nil, malformed(errors.New("syntax error"))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, invalid(0, "the root of the JSON file must be a list [...] of questions")
	}
	return items, nil
}

func preview(text string) string {
	r := []rune(text)
	if len(r) > 30 {
		r = r[:30]
	}
	return string(r)
}

// parseImportItem 校验单个元素：text 非空字符串，answers 为非空数组，
// 每个选项有非空 text，is_correct 可省略，出现时必须为 true/false，且恰好一个为 true
func parseImportItem(index int, raw json.RawMessage) (*model.Question, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, invalid(index, "invalid data structure for question #%d", index)
	}

	var text string
	if err := json.Unmarshal(obj["text"], &text); err != nil || strings.TrimSpace(text) == "" {
		return nil, invalid(index, "invalid data structure for question #%d", index)
	}
	var answers []json.RawMessage
	if err := json.Unmarshal(obj["answers"], &answers); err != nil || len(answers) == 0 {
		return nil, invalid(index, "invalid data structure for question #%d", index)
	}

	q := &model.Question{Text: strings.TrimSpace(text)}
	correct := 0
	for j, ar := range answers {
		var ao map[string]json.RawMessage
		if err := json.Unmarshal(ar, &ao); err != nil || ao == nil {
			return nil, invalid(index, "answer #%d of question #%d is not an object", j+1, index)
		}
		var at string
		if err := json.Unmarshal(ao["text"], &at); err != nil || strings.TrimSpace(at) == "" {
			return nil, invalid(index, "answer #%d of question #%d has no text", j+1, index)
		}
		// 缺省为 false；出现时必须是布尔值，null 同样拒绝
		isCorrect := false
		if v, ok := ao["is_correct"]; ok {
			var flag *bool
			if err := json.Unmarshal(v, &flag); err != nil || flag == nil {
				return nil, invalid(index, "answer #%d of question #%d: is_correct must be true or false", j+1, index)
			}
			isCorrect = *flag
		}
		if isCorrect {
			correct++
		}
		q.Answers = append(q.Answers, model.Answer{Text: strings.TrimSpace(at), IsCorrect: isCorrect})
	}

	if correct != 1 {
		return nil, invalid(index, "question #%d ('%s...') must have exactly one correct answer", index, preview(q.Text))
	}
	return q, nil
}

// BulkImport 从 JSON 文件批量导入题目，全部成功或全部回滚
func (s *QuestionService) BulkImport(ctx context.Context, actor Actor, testID uint, filename string, r io.Reader) (res *ImportResult, err error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "QuestionService.BulkImport")
	defer span.End()

	defer func() {
		var ie *ImportError
		switch {
		case err == nil:
			monitoring.BulkImports.WithLabelValues("success").Inc()
		case errors.As(err, &ie):
			monitoring.BulkImports.WithLabelValues(string(ie.Kind)).Inc()
			logger.Log.Warn("bulk import rejected",
				zap.Uint("test_id", testID),
				zap.String("kind", string(ie.Kind)),
				zap.Int("index", ie.Index),
				zap.Error(ie.Err),
			)
		}
	}()

	if _, err := s.findTest(s.TestRepo, testID); err != nil {
		return nil, err
	}
	if !util.HasExtension(filename, ".json") {
		return nil, &ValidationError{Field: util.FormImportFileField, Message: "invalid file type, only .json files are accepted"}
	}

	items, err := readImportDocument(r, s.maxImportBytes.Load())
	if err != nil {
		return nil, err
	}

	var change statusChange
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) (txErr error) {
		test, err := s.findTest(s.TestRepo.WithTx(tx), testID)
		if err != nil {
			return err
		}

		if err := tx.SavePoint(importSavepoint).Error; err != nil {
			return err
		}
		defer func() {
			if p := recover(); p != nil {
				txErr = &ImportError{Kind: ImportUnexpected, Err: fmt.Errorf("panic: %v", p)}
			}
			if txErr != nil {
				if rbErr := tx.RollbackTo(importSavepoint).Error; rbErr != nil {
					logger.Log.Error("rollback to savepoint failed", zap.Error(rbErr))
				}
			}
		}()

		change = statusChange{TestID: test.ID, From: test.Status, To: test.Status}
		questions := s.QuestionRepo.WithTx(tx)
		for i, raw := range items {
			q, err := parseImportItem(i+1, raw)
			if err != nil {
				return err
			}
			q.TestID = test.ID
			if err := questions.Create(q); err != nil {
				return &ImportError{Kind: ImportUnexpected, Index: i + 1, Err: err}
			}
			c, err := syncTestStatus(tx, test)
			if err != nil {
				return &ImportError{Kind: ImportUnexpected, Index: i + 1, Err: err}
			}
			change.To, change.Count = c.To, c.Count
		}

		res = &ImportResult{Added: len(items), TestID: test.ID, TestStatus: test.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	change.report()

	logger.Log.Info("bulk import completed",
		zap.Uint("test_id", testID),
		zap.Int("added", res.Added),
		zap.String("actor", actor.Username),
	)
	return res, nil
}
