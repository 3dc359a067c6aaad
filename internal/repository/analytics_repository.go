package repository

import (
	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// AttemptsByUser lists a user's attempts with their quiz preloaded.
func (r *AnalyticsRepository) AttemptsByUser(userID string, completedOnly bool, order string, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	q := r.DB.Preload("Quiz").Where("user_id = ?", userID)
	if completedOnly {
		q = q.Where("completed = ?", true)
	}
	if order != "" {
		q = q.Order(order)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

func (r *AnalyticsRepository) CountAndAverage(userID string, completedOnly bool) (int64, float64, error) {
	var row struct {
		Total int64
		Avg   *float64
	}
	q := r.DB.Model(&model.QuizAttempt{}).
		Select("COUNT(*) AS total, AVG(score) AS avg").
		Where("user_id = ?", userID)
	if completedOnly {
		q = q.Where("completed = ?", true)
	}
	if err := q.Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	avg := 0.0
	if row.Avg != nil {
		avg = *row.Avg
	}
	return row.Total, avg, nil
}

// DifficultyCountsForAttempt aggregates one attempt's question rows by difficulty.
func (r *AnalyticsRepository) DifficultyCountsForAttempt(attemptID string) ([]model.DifficultyCount, error) {
	var rows []model.DifficultyCount
	err := r.DB.Model(&model.QuestionAttempt{}).
		Select("difficulty, COUNT(*) AS total, SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct").
		Where("quiz_attempt_id = ?", attemptID).
		Group("difficulty").
		Scan(&rows).Error
	return rows, err
}

// DifficultyCountsForUser aggregates every question row of the user's
// completed attempts by difficulty.
func (r *AnalyticsRepository) DifficultyCountsForUser(userID string) ([]model.DifficultyCount, error) {
	var rows []model.DifficultyCount
	err := r.DB.Model(&model.QuestionAttempt{}).
		Select("question_attempts.difficulty, COUNT(*) AS total, SUM(CASE WHEN question_attempts.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN quiz_attempts ON quiz_attempts.id = question_attempts.quiz_attempt_id").
		Where("quiz_attempts.user_id = ? AND quiz_attempts.completed = ? AND quiz_attempts.deleted_at IS NULL", userID, true).
		Group("question_attempts.difficulty").
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	var rows []struct {
		UserID   string
		Username *string
		AvgScore float64
		Attempts int
	}
	q := r.DB.Model(&model.QuizAttempt{}).
		Select("quiz_attempts.user_id AS user_id, users.username AS username, AVG(quiz_attempts.score) AS avg_score, COUNT(*) AS attempts").
		Joins("LEFT JOIN users ON users.id = quiz_attempts.user_id").
		Where("quiz_attempts.completed = ?", true).
		Group("quiz_attempts.user_id, users.username").
		Order("avg_score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		name := row.UserID
		if row.Username != nil && *row.Username != "" {
			name = *row.Username
		}
		entries = append(entries, model.LeaderboardEntry{
			UserID:   row.UserID,
			Username: name,
			AvgScore: row.AvgScore,
			Attempts: row.Attempts,
		})
	}
	return entries, nil
}
