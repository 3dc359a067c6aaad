package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"

	"go.uber.org/zap"
)

// GenerateQuizRequest 生成测验请求
type GenerateQuizRequest struct {
	CategoryID    string  `json:"category" binding:"required"`
	SubcategoryID *string `json:"subcategory"`
	Difficulty    string  `json:"difficulty"`
	Count         *int    `json:"count"`
}

const questionSourceAI = "ai"

type QuizService struct {
	CategoryRepo *repository.CategoryRepository
	QuestionRepo *repository.QuestionRepository
	Generator    *QuestionGenerator
	Storage      *StorageService

	mu  sync.RWMutex
	cfg config.QuizConfig
}

func NewQuizService(
	categoryRepo *repository.CategoryRepository,
	questionRepo *repository.QuestionRepository,
	generator *QuestionGenerator,
	storage *StorageService,
	cfg config.QuizConfig,
) *QuizService {
	return &QuizService{
		CategoryRepo: categoryRepo,
		QuestionRepo: questionRepo,
		Generator:    generator,
		Storage:      storage,
		cfg:          cfg,
	}
}

// UpdateConfig 配置热更新：origin hints / 题量限制
func (s *QuizService) UpdateConfig(cfg config.QuizConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *QuizService) config() config.QuizConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Generate resolves the topic, asks the generator for questions and
// stores them as a new quiz. Nothing is stored when no question survives
// validation.
func (s *QuizService) Generate(ctx context.Context, req GenerateQuizRequest) (*model.Quiz, error) {
	cfg := s.config()

	difficulty := model.DifficultyMedium
	if strings.TrimSpace(req.Difficulty) != "" {
		d, err := model.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
		}
		difficulty = d
	}

	count := cfg.DefaultCount
	if count <= 0 {
		count = 5
	}
	if req.Count != nil {
		count = *req.Count
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", util.ErrInvalidInput)
	}
	if cfg.MaxCount > 0 && count > cfg.MaxCount {
		return nil, fmt.Errorf("%w: count must not exceed %d", util.ErrInvalidInput, cfg.MaxCount)
	}

	category, err := s.CategoryRepo.FindCategory(req.CategoryID)
	if err != nil {
		return nil, err
	}

	topic := category.Name
	var subcategoryID *string
	if req.SubcategoryID != nil && *req.SubcategoryID != "" {
		sub, err := s.CategoryRepo.FindSubcategory(*req.SubcategoryID)
		if err != nil {
			return nil, err
		}
		if sub.CategoryID != category.ID {
			return nil, fmt.Errorf("%w: subcategory %s is not in category %s", util.ErrNotFound, sub.ID, category.ID)
		}
		topic = sub.Name
		subcategoryID = &sub.ID
	}

	result := s.Generator.Generate(ctx, GenerateRequest{
		Topic:      topic,
		Difficulty: difficulty,
		Count:      count,
		OriginHint: cfg.OriginHint(topic),
	})

	archive := GenerationArchive{
		Topic:      topic,
		Difficulty: string(difficulty),
		Requested:  count,
		Accepted:   len(result.Questions),
		Dropped:    result.Dropped,
		Raw:        result.Raw,
		CreatedAt:  time.Now(),
	}

	if len(result.Questions) == 0 {
		reason := result.Err
		if reason == nil {
			reason = fmt.Errorf("no valid questions")
		}
		archive.Error = reason.Error()
		s.Storage.ArchiveGeneration(ctx, archive)
		return nil, fmt.Errorf("%w: %s: %v", util.ErrGenerationFailed, topic, reason)
	}

	templates := make([]model.QuestionTemplate, 0, len(result.Questions))
	for _, q := range result.Questions {
		templates = append(templates, model.QuestionTemplate{
			CategoryID:    category.ID,
			SubcategoryID: subcategoryID,
			Difficulty:    difficulty,
			Source:        questionSourceAI,
			QuestionText:  q.Question,
			Choices:       q.Choices,
			CorrectChoice: q.CorrectChoiceIndex,
			Explanation:   q.Explanation,
			References:    q.References,
		})
	}

	secondsPerQuestion := cfg.SecondsPerQuestion
	if secondsPerQuestion <= 0 {
		secondsPerQuestion = 60
	}

	quiz := &model.Quiz{
		Title:         topic + " Quiz",
		CategoryID:    category.ID,
		SubcategoryID: subcategoryID,
		Difficulty:    difficulty,
		TimeLimit:     count * secondsPerQuestion,
	}
	if err := s.QuestionRepo.CreateQuiz(ctx, templates, quiz); err != nil {
		return nil, err
	}

	logger.Log.Info("Quiz generated",
		zap.String("quiz_id", quiz.ID),
		zap.String("topic", topic),
		zap.String("difficulty", string(difficulty)),
		zap.Int("requested", count),
		zap.Int("accepted", len(templates)),
	)

	archive.QuizID = quiz.ID
	s.Storage.ArchiveGeneration(ctx, archive)

	return quiz, nil
}
