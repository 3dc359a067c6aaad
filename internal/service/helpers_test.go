package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeCompleter stands in for the language model.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]AIChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []AIChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	msgs := f.calls[len(f.calls)-1]
	return msgs[len(msgs)-1].Content
}

// questionsJSON renders n well-formed questions whose answer is index 1.
func questionsJSON(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"question":"Question %d?","choices":["a","b","c","d"],"correct_choice_index":1,"explanation":"because","references":["https://example.com/%d"]}`, i+1, i+1))
	}
	return `{"questions":[` + strings.Join(items, ",") + `]}`
}

// seedQuiz stores a quiz whose templates have the given correct indexes.
func seedQuiz(t *testing.T, db *gorm.DB, correct ...int) *model.Quiz {
	t.Helper()
	var cat model.Category
	require.NoError(t, db.First(&cat).Error)

	templates := make([]model.QuestionTemplate, 0, len(correct))
	for i, c := range correct {
		templates = append(templates, model.QuestionTemplate{
			CategoryID:    cat.ID,
			Difficulty:    model.DifficultyMedium,
			Source:        questionSourceAI,
			QuestionText:  fmt.Sprintf("Q%d", i+1),
			Choices:       []string{"a", "b", "c", "d"},
			CorrectChoice: c,
			References:    []string{},
		})
	}
	quiz := &model.Quiz{
		Title:      cat.Name + " Quiz",
		CategoryID: cat.ID,
		Difficulty: model.DifficultyMedium,
		TimeLimit:  len(correct) * 60,
	}
	require.NoError(t, repository.NewQuestionRepository(db).CreateQuiz(context.Background(), templates, quiz))
	return quiz
}

func newAttemptService(db *gorm.DB) *AttemptService {
	return NewAttemptService(db, repository.NewAttemptRepository(db), repository.NewQuestionRepository(db), nil)
}
