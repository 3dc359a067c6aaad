package repository

import (
	"context"

	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
)

// QuestionRepository 题库：题目模板与测验，创建后不再修改
type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// CreateQuiz persists the templates in order, then the quiz that
// references them, in one transaction. quiz.QuestionTemplates is filled
// with the new template ids.
func (r *QuestionRepository) CreateQuiz(ctx context.Context, templates []model.QuestionTemplate, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(templates) > 0 {
			if err := tx.Create(&templates).Error; err != nil {
				return err
			}
		}
		ids := make([]string, 0, len(templates))
		for _, t := range templates {
			ids = append(ids, t.ID)
		}
		quiz.QuestionTemplates = ids
		return tx.Create(quiz).Error
	})
}

func (r *QuestionRepository) FindQuizByID(ctx context.Context, id string) (*model.Quiz, error) {
	var q model.Quiz
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, notFound(err, "quiz", id)
	}
	return &q, nil
}

func (r *QuestionRepository) FindTemplatesByIDs(ctx context.Context, ids []string) ([]model.QuestionTemplate, error) {
	var templates []model.QuestionTemplate
	if len(ids) == 0 {
		return templates, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&templates).Error
	return templates, err
}
