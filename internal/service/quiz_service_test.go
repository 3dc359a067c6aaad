package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/testutil"
	"quiz_platform_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testQuizConfig = config.QuizConfig{
	SecondsPerQuestion: 60,
	DefaultCount:       5,
	MaxCount:           20,
	OriginHints: map[string]string{
		"current affairs": "Use India-specific context.",
	},
}

func newQuizService(db *gorm.DB, fake *fakeCompleter, storage *StorageService) *QuizService {
	return NewQuizService(
		repository.NewCategoryRepository(db),
		repository.NewQuestionRepository(db),
		NewQuestionGenerator(fake, 2),
		storage,
		testQuizConfig,
	)
}

func intPtr(i int) *int { return &i }

func TestQuizGenerateCreatesQuiz(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "physics")
	fake := &fakeCompleter{reply: questionsJSON(3)}
	svc := newQuizService(db, fake, nil)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{
		CategoryID: cat.ID,
		Difficulty: "Hard",
		Count:      intPtr(3),
	})
	require.NoError(t, err)

	assert.Equal(t, "Physics Quiz", quiz.Title)
	assert.Equal(t, model.DifficultyHard, quiz.Difficulty)
	assert.Equal(t, 180, quiz.TimeLimit)
	require.Len(t, quiz.QuestionTemplates, 3)

	stored, err := svc.QuestionRepo.FindQuizByID(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.QuestionTemplates, stored.QuestionTemplates)

	templates, err := svc.QuestionRepo.FindTemplatesByIDs(context.Background(), quiz.QuestionTemplates)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	for _, tpl := range templates {
		assert.Equal(t, "ai", tpl.Source)
		assert.Equal(t, cat.ID, tpl.CategoryID)
		assert.Len(t, tpl.Choices, model.ChoiceCount)
		assert.Equal(t, 1, tpl.CorrectChoice)
	}
}

func TestQuizGenerateTimeLimitUsesRequestedCount(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	// the model only returns 2 of the 4 requested questions
	svc := newQuizService(db, &fakeCompleter{reply: questionsJSON(2)}, nil)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID, Count: intPtr(4)})
	require.NoError(t, err)
	assert.Len(t, quiz.QuestionTemplates, 2)
	assert.Equal(t, 240, quiz.TimeLimit)
	assert.Equal(t, model.DifficultyMedium, quiz.Difficulty)
}

func TestQuizGenerateDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	fake := &fakeCompleter{reply: questionsJSON(5)}
	svc := newQuizService(db, fake, nil)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, 300, quiz.TimeLimit)
	assert.Contains(t, fake.lastPrompt(), "exactly 5 multiple-choice questions")
	assert.Contains(t, fake.lastPrompt(), `"medium"`)
}

func TestQuizGenerateFailureCreatesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	svc := newQuizService(db, &fakeCompleter{reply: "Sorry, I can't produce questions about that."}, nil)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID})
	assert.Nil(t, quiz)
	assert.ErrorIs(t, err, util.ErrGenerationFailed)

	var quizzes int64
	require.NoError(t, db.Model(&model.Quiz{}).Count(&quizzes).Error)
	assert.Zero(t, quizzes)

	var templates int64
	require.NoError(t, db.Model(&model.QuestionTemplate{}).Count(&templates).Error)
	assert.Zero(t, templates)
}

func TestQuizGenerateAllItemsInvalid(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	reply := `{"questions":[{"question":"q","choices":["a","b"],"correct_choice_index":0}]}`
	svc := newQuizService(db, &fakeCompleter{reply: reply}, nil)

	_, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID})
	assert.ErrorIs(t, err, util.ErrGenerationFailed)
}

func TestQuizGenerateUsesSubcategoryAndOriginHint(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "general-knowledge")
	sub := &model.Subcategory{CategoryID: cat.ID, Name: "Current Affairs", Slug: "gk-current-affairs"}
	require.NoError(t, repository.NewCategoryRepository(db).CreateSubcategory(sub))

	fake := &fakeCompleter{reply: questionsJSON(2)}
	svc := newQuizService(db, fake, nil)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID, SubcategoryID: &sub.ID, Count: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, "Current Affairs Quiz", quiz.Title)
	require.NotNil(t, quiz.SubcategoryID)
	assert.Equal(t, sub.ID, *quiz.SubcategoryID)
	assert.Contains(t, fake.lastPrompt(), "IMPORTANT: Use India-specific context.")

	svc.UpdateConfig(config.QuizConfig{SecondsPerQuestion: 30, DefaultCount: 5, MaxCount: 20})
	quiz, err = svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID, SubcategoryID: &sub.ID, Count: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 60, quiz.TimeLimit)
	assert.NotContains(t, fake.lastPrompt(), "IMPORTANT:")
}

func TestQuizGenerateRejectsBadInput(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	other := testutil.CategoryBySlug(t, db, "physics")
	sub := &model.Subcategory{CategoryID: other.ID, Name: "Optics", Slug: "optics"}
	require.NoError(t, repository.NewCategoryRepository(db).CreateSubcategory(sub))
	missing := "does-not-exist"

	tests := []struct {
		name string
		req  GenerateQuizRequest
		want error
	}{
		{"unknown category", GenerateQuizRequest{CategoryID: "nope"}, util.ErrNotFound},
		{"unknown subcategory", GenerateQuizRequest{CategoryID: cat.ID, SubcategoryID: &missing}, util.ErrNotFound},
		{"subcategory of another category", GenerateQuizRequest{CategoryID: cat.ID, SubcategoryID: &sub.ID}, util.ErrNotFound},
		{"bad difficulty", GenerateQuizRequest{CategoryID: cat.ID, Difficulty: "insane"}, util.ErrInvalidInput},
		{"zero count", GenerateQuizRequest{CategoryID: cat.ID, Count: intPtr(0)}, util.ErrInvalidInput},
		{"too many", GenerateQuizRequest{CategoryID: cat.ID, Count: intPtr(21)}, util.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{reply: questionsJSON(1)}
			svc := newQuizService(db, fake, nil)
			_, err := svc.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, fake.calls)
		})
	}
}

func TestQuizGenerateArchivesRawOutput(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "history")
	dir := t.TempDir()
	storage := NewStorageService(&config.Config{Storage: config.StorageConfig{
		Type:       util.StorageLocal,
		LocalPath:  dir,
		ArchiveRaw: true,
	}})
	svc := newQuizService(db, &fakeCompleter{reply: questionsJSON(1)}, storage)

	quiz, err := svc.Generate(context.Background(), GenerateQuizRequest{CategoryID: cat.ID, Count: intPtr(1)})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "generations", "*", "*", "*", quiz.ID+".json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"accepted":1`)
}
