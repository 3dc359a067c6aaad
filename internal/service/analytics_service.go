package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "quiz:leaderboard"
	leaderboardCacheTTL = 60 * time.Second
	recentAttemptsLimit = 5

	strengthThreshold = 70.0
	weaknessThreshold = 50.0
)

type AnalyticsService struct {
	AnalyticsRepo *repository.AnalyticsRepository
	AttemptRepo   *repository.AttemptRepository
	Redis         *redis.Client
}

// NewAnalyticsService rdb 可为 nil，此时排行榜不缓存
func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository, attemptRepo *repository.AttemptRepository, rdb *redis.Client) *AnalyticsService {
	return &AnalyticsService{
		AnalyticsRepo: analyticsRepo,
		AttemptRepo:   attemptRepo,
		Redis:         rdb,
	}
}

func summarize(a model.QuizAttempt) model.AttemptSummary {
	s := model.AttemptSummary{
		ID:        a.ID,
		QuizID:    a.QuizID,
		Score:     a.Score,
		Completed: a.Completed,
		StartedAt: a.StartedAt.Format(time.RFC3339),
	}
	if a.Quiz != nil {
		s.QuizTitle = a.Quiz.Title
	}
	if a.FinishedAt != nil {
		s.FinishedAt = a.FinishedAt.Format(time.RFC3339)
	}
	return s
}

func (s *AnalyticsService) Dashboard(userID string) (*model.Dashboard, error) {
	total, avg, err := s.AnalyticsRepo.CountAndAverage(userID, false)
	if err != nil {
		return nil, err
	}
	recent, err := s.AnalyticsRepo.AttemptsByUser(userID, false, "started_at DESC", recentAttemptsLimit)
	if err != nil {
		return nil, err
	}

	dashboard := &model.Dashboard{
		TotalQuizzes: int(total),
		AverageScore: util.Round2(avg),
		RecentScores: make([]model.AttemptSummary, 0, len(recent)),
	}
	for _, a := range recent {
		dashboard.RecentScores = append(dashboard.RecentScores, summarize(a))
	}
	return dashboard, nil
}

// Progress 已完成作答按开始时间排列的分数曲线
func (s *AnalyticsService) Progress(userID string) ([]model.ScorePoint, error) {
	attempts, err := s.AnalyticsRepo.AttemptsByUser(userID, true, "started_at ASC", 0)
	if err != nil {
		return nil, err
	}
	return scorePoints(attempts), nil
}

func scorePoints(attempts []model.QuizAttempt) []model.ScorePoint {
	points := make([]model.ScorePoint, 0, len(attempts))
	for _, a := range attempts {
		points = append(points, model.ScorePoint{
			Date:  a.StartedAt.Format(util.DateFormat),
			Score: a.Score,
		})
	}
	return points
}

func (s *AnalyticsService) AttemptAnalytics(attemptID, userID string) (*model.AttemptAnalytics, error) {
	attempt, err := s.AttemptRepo.FindByIDAndUser(attemptID, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.AnalyticsRepo.DifficultyCountsForAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[model.Difficulty]model.DifficultyBreakdown, 3)
	for _, d := range model.AllDifficulties() {
		breakdown[d] = model.DifficultyBreakdown{}
	}
	total, correct := 0, 0
	seen := make(map[model.Difficulty]bool)
	for _, row := range counts {
		d := row.Difficulty
		if !d.Valid() {
			d = model.DifficultyEasy
		}
		b := breakdown[d]
		b.Correct += row.Correct
		b.Incorrect += row.Total - row.Correct
		b.Accuracy = percent(b.Correct, b.Correct+b.Incorrect)
		breakdown[d] = b
		seen[d] = true
		total += row.Total
		correct += row.Correct
	}

	result := &model.AttemptAnalytics{
		Accuracy:            percent(correct, total),
		DifficultyBreakdown: breakdown,
		Strengths:           []string{},
		WeakAreas:           []string{},
	}
	for _, d := range model.AllDifficulties() {
		if !seen[d] {
			continue
		}
		acc := breakdown[d].Accuracy
		switch {
		case acc >= strengthThreshold:
			result.Strengths = append(result.Strengths, fmt.Sprintf("Strong on %s questions", d))
		case acc < weaknessThreshold:
			result.WeakAreas = append(result.WeakAreas, fmt.Sprintf("Review %s questions", d))
		}
	}
	if len(result.Strengths) == 0 {
		result.Strengths = append(result.Strengths, "Good progress")
	}
	if len(result.WeakAreas) == 0 && correct < total {
		result.WeakAreas = append(result.WeakAreas, "Review incorrect answers")
	}
	return result, nil
}

func (s *AnalyticsService) UserAnalytics(userID string) (*model.UserAnalytics, error) {
	attempts, err := s.AnalyticsRepo.AttemptsByUser(userID, true, "started_at ASC", 0)
	if err != nil {
		return nil, err
	}
	counts, err := s.AnalyticsRepo.DifficultyCountsForUser(userID)
	if err != nil {
		return nil, err
	}

	sum := 0.0
	for _, a := range attempts {
		sum += a.Score
	}
	avg := 0.0
	if len(attempts) > 0 {
		avg = util.Round2(sum / float64(len(attempts)))
	}

	perLevel := make(map[model.Difficulty][2]int, 3)
	totalQ, correctQ := 0, 0
	for _, row := range counts {
		d := row.Difficulty
		if !d.Valid() {
			d = model.DifficultyEasy
		}
		c := perLevel[d]
		c[0] += row.Correct
		c[1] += row.Total
		perLevel[d] = c
		totalQ += row.Total
		correctQ += row.Correct
	}

	accuracy := make(map[model.Difficulty]float64, 3)
	for _, d := range model.AllDifficulties() {
		c := perLevel[d]
		accuracy[d] = percent(c[0], c[1])
	}

	return &model.UserAnalytics{
		TotalQuizzes:       len(attempts),
		AverageScore:       avg,
		LifetimeAccuracy:   percent(correctQ, totalQ),
		ProgressGraph:      scorePoints(attempts),
		DifficultyAccuracy: accuracy,
		Recommendations:    recommend(accuracy, perLevel, avg, len(attempts)),
	}, nil
}

// recommend only judges levels the user has actually played.
func recommend(accuracy map[model.Difficulty]float64, played map[model.Difficulty][2]int, avg float64, attempts int) []string {
	var recs []string
	if played[model.DifficultyMedium][1] > 0 && accuracy[model.DifficultyMedium] < 50 {
		recs = append(recs, "Improve medium-level fundamentals.")
	}
	if played[model.DifficultyHard][1] > 0 && accuracy[model.DifficultyHard] < 40 {
		recs = append(recs, "Practice basics before hard quizzes.")
	}
	if attempts > 0 && avg < 50 {
		recs = append(recs, "Review incorrect answers carefully.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Excellent performance! Keep it up.")
	}
	return recs
}

// Leaderboard 排行榜，Redis 可用时缓存 60 秒
func (s *AnalyticsService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	key := fmt.Sprintf("%s:%d", leaderboardCacheKey, limit)
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var cached []model.LeaderboardEntry
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Leaderboard cache read failed", zap.Error(err))
		}
	}

	entries, err := s.AnalyticsRepo.Leaderboard(limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].AvgScore = util.Round2(entries[i].AvgScore)
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.Redis.Set(ctx, key, data, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("Leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return entries, nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return util.Round2(float64(part) / float64(whole) * 100)
}
