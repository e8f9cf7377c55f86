package repository

import (
	"strings"
	"testhub_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) WithTx(tx *gorm.DB) *TestRepository {
	return &TestRepository{DB: tx}
}

type TestFilter struct {
	CategorySlug  string
	Difficulty    string
	Search        string
	PublishedOnly bool
}

type TestListRow struct {
	model.Test
	NumberOfQuestions int64 `json:"numberOfQuestions"`
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Category").Preload("Creator").First(&test, id).Error
	return &test, err
}

// FindWithQuestions 按 id 顺序加载题目与选项
func (r *TestRepository) FindWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.
		Preload("Category").
		Preload("Creator").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id asc")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id asc")
		}).
		First(&test, id).Error
	return &test, err
}

func (r *TestRepository) CountQuestions(testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}

// UpdateStatus 只写 status 列，不触碰其他字段
func (r *TestRepository) UpdateStatus(testID uint, status model.TestStatus) error {
	return r.DB.Model(&model.Test{}).Where("id = ?", testID).Update("status", status).Error
}

func (r *TestRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).Count(&count).Error
	return count, err
}

func (r *TestRepository) List(filter TestFilter, page, limit int) ([]TestListRow, int64, error) {
	query := r.DB.Model(&model.Test{})
	if filter.PublishedOnly {
		query = query.Where("tests.status = ?", model.TestPublished)
	}
	if filter.Difficulty != "" {
		query = query.Where("tests.difficulty = ?", filter.Difficulty)
	}
	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = tests.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query = query.Where("LOWER(tests.title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tests []model.Test
	q := query.Preload("Category").Preload("Creator").Order("tests.created_at desc, tests.id desc")
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * limit).Limit(limit)
	}
	if err := q.Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	counts, err := r.questionCounts(tests)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]TestListRow, len(tests))
	for i, t := range tests {
		rows[i] = TestListRow{Test: t, NumberOfQuestions: counts[t.ID]}
	}
	return rows, total, nil
}

func (r *TestRepository) questionCounts(tests []model.Test) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(tests))
	if len(tests) == 0 {
		return counts, nil
	}
	ids := make([]uint, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}

	var rows []struct {
		TestID uint
		Total  int64
	}
	err := r.DB.Model(&model.Question{}).
		Select("test_id, COUNT(*) as total").
		Where("test_id IN ?", ids).
		Group("test_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TestID] = row.Total
	}
	return counts, nil
}

// IDsByCreator 用于删除账号时级联删除其创建的试卷
func (r *TestRepository) IDsByCreator(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Test{}).Where("creator_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}

// Delete 按从属关系显式删除：作答选项关联、作答记录、选项、题目、试卷。
// 调用方负责提供事务。
func (r *TestRepository) Delete(testID uint) error {
	tx := r.DB

	var attemptIDs []uint
	if err := tx.Model(&model.TestAttempt{}).Where("test_id = ?", testID).Pluck("id", &attemptIDs).Error; err != nil {
		return err
	}
	if err := deleteSelectionsByAttempts(tx, attemptIDs); err != nil {
		return err
	}
	if err := tx.Where("test_id = ?", testID).Delete(&model.TestAttempt{}).Error; err != nil {
		return err
	}

	var questionIDs []uint
	if err := tx.Model(&model.Question{}).Where("test_id = ?", testID).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if err := deleteQuestions(tx, questionIDs); err != nil {
		return err
	}

	res := tx.Delete(&model.Test{}, testID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func deleteSelectionsByAttempts(tx *gorm.DB, attemptIDs []uint) error {
	if len(attemptIDs) == 0 {
		return nil
	}
	return tx.Exec("DELETE FROM "+model.AttemptSelectionTable+" WHERE test_attempt_id IN ?", attemptIDs).Error
}

// deleteQuestions 删除题目及其选项，并清理作答中对这些选项的引用
func deleteQuestions(tx *gorm.DB, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	var answerIDs []uint
	if err := tx.Model(&model.Answer{}).Where("question_id IN ?", questionIDs).Pluck("id", &answerIDs).Error; err != nil {
		return err
	}
	if len(answerIDs) > 0 {
		if err := tx.Exec("DELETE FROM "+model.AttemptSelectionTable+" WHERE answer_id IN ?", answerIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", answerIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", questionIDs).Delete(&model.Question{}).Error
}
