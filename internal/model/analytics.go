package model

// ScorePoint 进度曲线上的一个点
type ScorePoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

type AttemptSummary struct {
	ID         string  `json:"id"`
	QuizID     string  `json:"quizId"`
	QuizTitle  string  `json:"quizTitle"`
	Score      float64 `json:"score"`
	Completed  bool    `json:"completed"`
	StartedAt  string  `json:"startedAt"`
	FinishedAt string  `json:"finishedAt,omitempty"`
}

type Dashboard struct {
	TotalQuizzes int              `json:"total_quizzes"`
	AverageScore float64          `json:"average_score"`
	RecentScores []AttemptSummary `json:"recent_scores"`
}

type DifficultyBreakdown struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  float64 `json:"accuracy"`
}

type AttemptAnalytics struct {
	Accuracy            float64                            `json:"accuracy"`
	DifficultyBreakdown map[Difficulty]DifficultyBreakdown `json:"difficulty_breakdown"`
	Strengths           []string                           `json:"strengths"`
	WeakAreas           []string                           `json:"weak_areas"`
}

type UserAnalytics struct {
	TotalQuizzes       int                    `json:"total_quizzes"`
	AverageScore       float64                `json:"average_score"`
	LifetimeAccuracy   float64                `json:"lifetime_accuracy"`
	ProgressGraph      []ScorePoint           `json:"progress_graph"`
	DifficultyAccuracy map[Difficulty]float64 `json:"difficulty_accuracy"`
	Recommendations    []string               `json:"recommendations"`
}

type LeaderboardEntry struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	AvgScore float64 `json:"avg_score"`
	Attempts int     `json:"attempts"`
}

// DifficultyCount 按难度聚合的作答统计行
type DifficultyCount struct {
	Difficulty Difficulty
	Total      int
	Correct    int
}
