package service

import (
	"context"
	"fmt"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/lock"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"
	"quiz_platform_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// adaptiveWindow 难度调整参考最近的作答条数
const adaptiveWindow = 3

type AnswerResult struct {
	Saved         bool             `json:"saved"`
	IsCorrect     bool             `json:"is_correct"`
	NewDifficulty model.Difficulty `json:"new_difficulty"`
}

type QuestionDetail struct {
	QuestionID    string           `json:"question_id"`
	Position      int              `json:"position"`
	Question      string           `json:"question"`
	Choices       []string         `json:"choices"`
	Selected      int              `json:"selected"`
	IsCorrect     bool             `json:"is_correct"`
	CorrectChoice *int             `json:"correct_choice,omitempty"`
	Explanation   string           `json:"explanation,omitempty"`
	References    []string         `json:"references"`
	Difficulty    model.Difficulty `json:"difficulty"`
}

type AttemptDetails struct {
	AttemptID         string           `json:"attempt_id"`
	QuizID            string           `json:"quiz_id"`
	QuizTitle         string           `json:"quiz_title"`
	Questions         []QuestionDetail `json:"questions"`
	Score             float64          `json:"score"`
	Completed         bool             `json:"completed"`
	TimeLimit         int              `json:"time_limit"`
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        *time.Time       `json:"finished_at,omitempty"`
	CurrentDifficulty model.Difficulty `json:"current_difficulty"`
}

// AttemptService 作答状态机：start → answer* → finish
type AttemptService struct {
	DB           *gorm.DB
	AttemptRepo  *repository.AttemptRepository
	QuestionRepo *repository.QuestionRepository
	Locker       lock.Locker
	now          func() time.Time
}

func NewAttemptService(db *gorm.DB, attemptRepo *repository.AttemptRepository, questionRepo *repository.QuestionRepository, locker lock.Locker) *AttemptService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &AttemptService{
		DB:           db,
		AttemptRepo:  attemptRepo,
		QuestionRepo: questionRepo,
		Locker:       locker,
		now:          time.Now,
	}
}

// Start creates the attempt and one unanswered row per question of the
// quiz, all or nothing.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (*model.QuizAttempt, error) {
	quiz, err := s.QuestionRepo.FindQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	templates, err := s.QuestionRepo.FindTemplatesByIDs(ctx, quiz.QuestionTemplates)
	if err != nil {
		return nil, err
	}
	if missing := missingTemplates(quiz.QuestionTemplates, templates); len(missing) > 0 {
		return nil, fmt.Errorf("quiz %s references missing questions %v", quiz.ID, missing)
	}

	attempt := &model.QuizAttempt{
		QuizID:            quiz.ID,
		UserID:            userID,
		CurrentDifficulty: model.DifficultyEasy,
		StartedAt:         s.now(),
	}
	questions := make([]model.QuestionAttempt, 0, len(quiz.QuestionTemplates))
	for i, templateID := range quiz.QuestionTemplates {
		questions = append(questions, model.QuestionAttempt{
			QuestionTemplateID: templateID,
			Position:           i,
			SelectedChoice:     model.Unanswered,
			IsCorrect:          false,
			Difficulty:         model.DifficultyEasy,
		})
	}

	if err := s.AttemptRepo.WithTx(s.DB.WithContext(ctx)).CreateWithQuestions(attempt, questions); err != nil {
		return nil, err
	}
	attempt.Quiz = quiz

	monitoring.AttemptEvents.WithLabelValues("start").Inc()
	logger.Log.Info("Attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", quiz.ID),
		zap.String("user_id", userID),
		zap.Int("questions", len(questions)),
	)
	return attempt, nil
}

func missingTemplates(ids []string, found []model.QuestionTemplate) []string {
	seen := make(map[string]struct{}, len(found))
	for _, t := range found {
		seen[t.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// withAttempt runs fn with the attempt row locked, both in-process (or
// across replicas with Redis) and in the database.
func (s *AttemptService) withAttempt(ctx context.Context, op, attemptID, userID string, fn func(repo *repository.AttemptRepository, attempt *model.QuizAttempt) error) error {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService."+op)
	defer span.End()
	span.SetAttributes(attribute.String("quiz.attempt_id", attemptID))

	unlock, err := s.Locker.Lock(ctx, "attempt:"+attemptID)
	if err != nil {
		return fmt.Errorf("lock attempt %s: %w", attemptID, err)
	}
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.AttemptRepo.WithTx(tx)
		attempt, err := repo.LockByIDAndUser(attemptID, userID)
		if err != nil {
			return err
		}
		return fn(repo, attempt)
	})
}

// Answer records a selection, evaluates it and runs the adaptive rule.
// selected may be any integer-like value (number or numeric string).
func (s *AttemptService) Answer(ctx context.Context, attemptID, userID, questionID string, selected interface{}) (*AnswerResult, error) {
	var result *AnswerResult
	err := s.withAttempt(ctx, "Answer", attemptID, userID, func(repo *repository.AttemptRepository, attempt *model.QuizAttempt) error {
		qa, err := repo.FindQuestionAttempt(attempt.ID, questionID)
		if err != nil {
			return err
		}
		if attempt.Completed {
			return fmt.Errorf("%w: %s", util.ErrAttemptCompleted, attempt.ID)
		}

		index, err := util.CoerceInt(selected)
		if err != nil {
			return err
		}

		if qa.QuestionTemplate == nil {
			return fmt.Errorf("question template %s missing for attempt %s", qa.QuestionTemplateID, attempt.ID)
		}
		correct := EvaluateChoice(index, qa.QuestionTemplate.CorrectChoice, len(qa.QuestionTemplate.Choices))

		// 首次作答时记录当时生效的难度，重复作答保留原值
		if !qa.Answered() {
			qa.Difficulty = attempt.CurrentDifficulty
		}
		qa.SelectedChoice = index
		qa.IsCorrect = correct
		if err := repo.SaveAnswer(qa); err != nil {
			return err
		}

		recent, err := repo.RecentAnsweredQuestionAttempts(attempt.ID, adaptiveWindow)
		if err != nil {
			return err
		}
		next := AdaptDifficulty(attempt.CurrentDifficulty, recent)
		if next != attempt.CurrentDifficulty {
			if err := repo.UpdateDifficulty(attempt.ID, next); err != nil {
				return err
			}
			direction := "down"
			if next == attempt.CurrentDifficulty.Next() {
				direction = "up"
			}
			monitoring.DifficultyChanges.WithLabelValues(direction).Inc()
			logger.Log.Debug("Attempt difficulty changed",
				zap.String("attempt_id", attempt.ID),
				zap.String("from", string(attempt.CurrentDifficulty)),
				zap.String("to", string(next)),
			)
		}

		result = &AnswerResult{Saved: true, IsCorrect: correct, NewDifficulty: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptEvents.WithLabelValues("answer").Inc()
	return result, nil
}

// Finish freezes the weighted score. Finishing a completed attempt
// returns the stored score unchanged.
func (s *AttemptService) Finish(ctx context.Context, attemptID, userID string) (float64, error) {
	var score float64
	err := s.withAttempt(ctx, "Finish", attemptID, userID, func(repo *repository.AttemptRepository, attempt *model.QuizAttempt) error {
		if attempt.Completed {
			score = attempt.Score
			return nil
		}

		qas, err := repo.ListQuestionAttempts(attempt.ID)
		if err != nil {
			return err
		}
		score = WeightedScore(qas)
		return repo.Complete(attempt.ID, score, s.now())
	})
	if err != nil {
		return 0, err
	}

	monitoring.AttemptEvents.WithLabelValues("finish").Inc()
	logger.Log.Info("Attempt finished", zap.String("attempt_id", attemptID), zap.Float64("score", score))
	return score, nil
}

// Details 作答详情；答案和解析只在完成后或该题已作答时返回
func (s *AttemptService) Details(ctx context.Context, attemptID, userID string) (*AttemptDetails, error) {
	repo := s.AttemptRepo.WithTx(s.DB.WithContext(ctx))
	attempt, err := repo.FindByIDAndUser(attemptID, userID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.QuestionRepo.FindQuizByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	qas, err := repo.ListQuestionAttempts(attempt.ID)
	if err != nil {
		return nil, err
	}

	details := &AttemptDetails{
		AttemptID:         attempt.ID,
		QuizID:            quiz.ID,
		QuizTitle:         quiz.Title,
		Questions:         make([]QuestionDetail, 0, len(qas)),
		Score:             attempt.Score,
		Completed:         attempt.Completed,
		TimeLimit:         quiz.TimeLimit,
		StartedAt:         attempt.StartedAt,
		FinishedAt:        attempt.FinishedAt,
		CurrentDifficulty: attempt.CurrentDifficulty,
	}

	for _, qa := range qas {
		d := QuestionDetail{
			QuestionID: qa.QuestionTemplateID,
			Position:   qa.Position,
			Selected:   qa.SelectedChoice,
			IsCorrect:  qa.IsCorrect,
			References: []string{},
			Difficulty: qa.Difficulty,
		}
		if t := qa.QuestionTemplate; t != nil {
			d.Question = t.QuestionText
			d.Choices = t.Choices
			if attempt.Completed || qa.Answered() {
				correct := t.CorrectChoice
				d.CorrectChoice = &correct
				d.Explanation = t.Explanation
				if t.References != nil {
					d.References = t.References
				}
			}
		}
		details.Questions = append(details.Questions, d)
	}
	return details, nil
}

// EvaluateChoice accepts both 0-based and 1-based client indexes: a value
// inside [0, n) is read as 0-based, otherwise [1, n] falls back to 1-based.
func EvaluateChoice(selected, correct, n int) bool {
	if selected >= 0 && selected < n {
		return selected == correct
	}
	if selected >= 1 && selected <= n {
		return selected-1 == correct
	}
	return false
}

// AdaptDifficulty promotes after 3 correct out of the recent window and
// demotes at 1 or fewer. Until 3 answers exist the level is kept.
func AdaptDifficulty(current model.Difficulty, recent []model.QuestionAttempt) model.Difficulty {
	if !current.Valid() {
		current = model.DifficultyEasy
	}
	if len(recent) < adaptiveWindow {
		return current
	}
	correct := 0
	for _, qa := range recent {
		if qa.IsCorrect {
			correct++
		}
	}
	switch {
	case correct >= adaptiveWindow:
		return current.Next()
	case correct <= 1:
		return current.Prev()
	default:
		return current
	}
}

// WeightedScore = round(100 * correct weight / total weight, 2), 0 when empty.
func WeightedScore(qas []model.QuestionAttempt) float64 {
	total, earned := 0, 0
	for _, qa := range qas {
		w := qa.Difficulty.Weight()
		total += w
		if qa.IsCorrect {
			earned += w
		}
	}
	if total == 0 {
		return 0
	}
	return util.Round2(100 * float64(earned) / float64(total))
}
