package repository

import (
	"time"

	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// WithTx returns a repository bound to tx.
func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

// CreateWithQuestions inserts the attempt and all of its question rows
// atomically.
func (r *AttemptRepository) CreateWithQuestions(attempt *model.QuizAttempt, questions []model.QuestionAttempt) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(attempt).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].QuizAttemptID = attempt.ID
		}
		if err := tx.Omit(clause.Associations).Create(&questions).Error; err != nil {
			return err
		}
		attempt.QuestionAttempts = questions
		return nil
	})
}

func (r *AttemptRepository) FindByIDAndUser(id, userID string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, notFound(err, "attempt", id)
	}
	return &a, nil
}

// LockByIDAndUser loads the attempt with a row lock (SELECT ... FOR UPDATE);
// must run inside a transaction.
func (r *AttemptRepository) LockByIDAndUser(id, userID string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, "attempt", id)
	}
	return &a, nil
}

func (r *AttemptRepository) FindQuestionAttempt(attemptID, questionID string) (*model.QuestionAttempt, error) {
	var qa model.QuestionAttempt
	err := r.DB.Preload("QuestionTemplate").
		Where("quiz_attempt_id = ? AND question_template_id = ?", attemptID, questionID).
		First(&qa).Error
	if err != nil {
		return nil, notFound(err, "question", questionID)
	}
	return &qa, nil
}

func (r *AttemptRepository) SaveAnswer(qa *model.QuestionAttempt) error {
	return r.DB.Model(&model.QuestionAttempt{}).
		Where("id = ?", qa.ID).
		Updates(map[string]interface{}{
			"selected_choice": qa.SelectedChoice,
			"is_correct":      qa.IsCorrect,
			"difficulty":      qa.Difficulty,
		}).Error
}

// RecentAnsweredQuestionAttempts returns the n most recently created rows
// that already carry a selection, newest first; rows created together are
// ordered by position.
func (r *AttemptRepository) RecentAnsweredQuestionAttempts(attemptID string, n int) ([]model.QuestionAttempt, error) {
	var qas []model.QuestionAttempt
	err := r.DB.Where("quiz_attempt_id = ? AND selected_choice <> ?", attemptID, model.Unanswered).
		Order("created_at DESC").
		Order("position DESC").
		Limit(n).
		Find(&qas).Error
	return qas, err
}

func (r *AttemptRepository) ListQuestionAttempts(attemptID string) ([]model.QuestionAttempt, error) {
	var qas []model.QuestionAttempt
	err := r.DB.Preload("QuestionTemplate").
		Where("quiz_attempt_id = ?", attemptID).
		Order("position ASC").
		Find(&qas).Error
	return qas, err
}

func (r *AttemptRepository) UpdateDifficulty(attemptID string, d model.Difficulty) error {
	return r.DB.Model(&model.QuizAttempt{}).
		Where("id = ?", attemptID).
		Update("current_difficulty", d).Error
}

func (r *AttemptRepository) Complete(attemptID string, score float64, finishedAt time.Time) error {
	return r.DB.Model(&model.QuizAttempt{}).
		Where("id = ? AND completed = ?", attemptID, false).
		Updates(map[string]interface{}{
			"score":       score,
			"completed":   true,
			"finished_at": finishedAt,
		}).Error
}
