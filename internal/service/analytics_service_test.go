package service

import (
	"context"
	"testing"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/testutil"
	"quiz_platform_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnalyticsService(db *gorm.DB) *AnalyticsService {
	return NewAnalyticsService(repository.NewAnalyticsRepository(db), repository.NewAttemptRepository(db), nil)
}

// playAttempt starts an attempt, forces per-question difficulty/correctness
// and optionally finishes it.
func playAttempt(t *testing.T, db *gorm.DB, svc *AttemptService, quiz *model.Quiz, userID string, startedAt time.Time, diffs []model.Difficulty, correct []bool, finish bool) *model.QuizAttempt {
	t.Helper()
	ctx := context.Background()
	svc.now = func() time.Time { return startedAt }
	attempt, err := svc.Start(ctx, quiz.ID, userID)
	require.NoError(t, err)

	for i := range diffs {
		require.NoError(t, db.Model(&model.QuestionAttempt{}).
			Where("quiz_attempt_id = ? AND position = ?", attempt.ID, i).
			Updates(map[string]interface{}{"difficulty": diffs[i], "is_correct": correct[i], "selected_choice": 0}).Error)
	}
	if finish {
		_, err := svc.Finish(ctx, attempt.ID, userID)
		require.NoError(t, err)
	}
	return attempt
}

func TestAttemptAnalytics(t *testing.T) {
	db := testutil.NewDB(t)
	quiz := seedQuiz(t, db, 0, 0, 0, 0)
	attempts := newAttemptService(db)
	attempt := playAttempt(t, db, attempts, quiz, testUser, time.Now(),
		[]model.Difficulty{model.DifficultyEasy, model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard},
		[]bool{true, true, false, false}, true)

	res, err := newAnalyticsService(db).AttemptAnalytics(attempt.ID, testUser)
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Accuracy)
	assert.Equal(t, model.DifficultyBreakdown{Correct: 2, Incorrect: 0, Accuracy: 100}, res.DifficultyBreakdown[model.DifficultyEasy])
	assert.Equal(t, model.DifficultyBreakdown{Correct: 0, Incorrect: 1, Accuracy: 0}, res.DifficultyBreakdown[model.DifficultyMedium])
	assert.Equal(t, model.DifficultyBreakdown{Correct: 0, Incorrect: 1, Accuracy: 0}, res.DifficultyBreakdown[model.DifficultyHard])
	assert.Equal(t, []string{"Strong on easy questions"}, res.Strengths)
	assert.Equal(t, []string{"Review medium questions", "Review hard questions"}, res.WeakAreas)

	_, err = newAnalyticsService(db).AttemptAnalytics(attempt.ID, "someone-else")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestDashboardAndProgress(t *testing.T) {
	db := testutil.NewDB(t)
	quiz := seedQuiz(t, db, 0, 0)
	attempts := newAttemptService(db)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	easy := []model.Difficulty{model.DifficultyEasy, model.DifficultyEasy}

	playAttempt(t, db, attempts, quiz, testUser, base, easy, []bool{true, true}, true)
	playAttempt(t, db, attempts, quiz, testUser, base.AddDate(0, 0, 1), easy, []bool{true, false}, true)
	playAttempt(t, db, attempts, quiz, testUser, base.AddDate(0, 0, 2), easy, []bool{false, false}, false)
	playAttempt(t, db, attempts, quiz, "other-user", base, easy, []bool{true, true}, true)

	svc := newAnalyticsService(db)

	dash, err := svc.Dashboard(testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalQuizzes)
	assert.Equal(t, 50.0, dash.AverageScore)
	require.Len(t, dash.RecentScores, 3)
	assert.False(t, dash.RecentScores[0].Completed)
	assert.Equal(t, quiz.Title, dash.RecentScores[0].QuizTitle)

	progress, err := svc.Progress(testUser)
	require.NoError(t, err)
	assert.Equal(t, []model.ScorePoint{
		{Date: "2026-03-01", Score: 100},
		{Date: "2026-03-02", Score: 50},
	}, progress)
}

func TestUserAnalyticsRecommendations(t *testing.T) {
	db := testutil.NewDB(t)
	quiz := seedQuiz(t, db, 0, 0, 0, 0)
	attempts := newAttemptService(db)
	now := time.Now()

	playAttempt(t, db, attempts, quiz, testUser, now,
		[]model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyMedium, model.DifficultyHard},
		[]bool{true, true, false, false}, true)

	res, err := newAnalyticsService(db).UserAnalytics(testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalQuizzes)
	// weights: 1 + 2 correct of 1 + 2 + 2 + 3
	assert.Equal(t, 37.5, res.AverageScore)
	assert.Equal(t, 50.0, res.LifetimeAccuracy)
	assert.Equal(t, 100.0, res.DifficultyAccuracy[model.DifficultyEasy])
	assert.Equal(t, 50.0, res.DifficultyAccuracy[model.DifficultyMedium])
	assert.Equal(t, 0.0, res.DifficultyAccuracy[model.DifficultyHard])
	assert.Equal(t, []string{
		"Practice basics before hard quizzes.",
		"Review incorrect answers carefully.",
	}, res.Recommendations)
	assert.Len(t, res.ProgressGraph, 1)
}

func TestUserAnalyticsEmpty(t *testing.T) {
	db := testutil.NewDB(t)

	res, err := newAnalyticsService(db).UserAnalytics("nobody")
	require.NoError(t, err)
	assert.Zero(t, res.TotalQuizzes)
	assert.Zero(t, res.LifetimeAccuracy)
	assert.Empty(t, res.ProgressGraph)
	assert.Equal(t, []string{"Excellent performance! Keep it up."}, res.Recommendations)
}

func TestLeaderboard(t *testing.T) {
	db := testutil.NewDB(t)
	quiz := seedQuiz(t, db, 0, 0, 0)
	attempts := newAttemptService(db)
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Touch("u-alice", "alice"))
	require.NoError(t, users.Touch("u-bob", "bob"))
	easy := []model.Difficulty{model.DifficultyEasy, model.DifficultyEasy, model.DifficultyEasy}
	now := time.Now()

	playAttempt(t, db, attempts, quiz, "u-alice", now, easy, []bool{true, true, false}, true)
	playAttempt(t, db, attempts, quiz, "u-alice", now, easy, []bool{true, false, false}, true)
	playAttempt(t, db, attempts, quiz, "u-bob", now, easy, []bool{true, false, false}, true)
	playAttempt(t, db, attempts, quiz, "u-bob", now, easy, []bool{true, true, true}, false)
	playAttempt(t, db, attempts, quiz, "u-carol", now, easy, []bool{true, true, true}, true)

	entries, err := newAnalyticsService(db).Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "u-carol", entries[0].Username)
	assert.Equal(t, 100.0, entries[0].AvgScore)
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, 50.0, entries[1].AvgScore)
	assert.Equal(t, 2, entries[1].Attempts)
	assert.Equal(t, "bob", entries[2].Username)
	assert.Equal(t, 33.33, entries[2].AvgScore)
	assert.Equal(t, 1, entries[2].Attempts)
}
