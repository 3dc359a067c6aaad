package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/testutil"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type staticCompleter struct {
	reply string
}

func (s staticCompleter) Complete(ctx context.Context, messages []service.AIChatMessage) (string, error) {
	return s.reply, nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: gin.TestMode},
		JWT:       config.JWTConfig{Secret: testSecret},
		Quiz:      config.QuizConfig{SecondsPerQuestion: 60, DefaultCount: 5, MaxCount: 20},
		Lock:      config.LockConfig{Type: util.LockLocal},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestQuizFlowOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "computer-science")

	reply := "```json\n" + `{"questions":[` +
		`{"question":"Q1","choices":["a","b","c","d"],"correct_choice_index":0,"explanation":"e1","references":[]},` +
		`{"question":"Q2","choices":["a","b","c","d"],"correct_choice_index":3,"explanation":"e2","references":[]}` +
		`]}` + "\n```"
	a := Assemble(testConfig(t), db, nil, staticCompleter{reply: reply})

	token, err := util.GenerateJWT("user-42", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	// unauthenticated
	code, _ := call(t, a, http.MethodPost, "/api/quiz/generate", "", gin.H{"category": cat.ID})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(t, a, http.MethodPost, "/api/quiz/generate", token, gin.H{"category": cat.ID, "count": 2, "difficulty": "easy"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var generated struct {
		QuizID    string `json:"quiz_id"`
		TimeLimit int    `json:"time_limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &generated))
	assert.Equal(t, 120, generated.TimeLimit)

	code, env = call(t, a, http.MethodPost, "/api/quiz/"+generated.QuizID+"/start", token, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var started struct {
		Attempt struct {
			ID               string `json:"id"`
			QuestionAttempts []struct {
				QuestionID string `json:"questionId"`
			} `json:"questionAttempts"`
		} `json:"attempt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	attemptID := started.Attempt.ID
	require.Len(t, started.Attempt.QuestionAttempts, 2)
	q1 := started.Attempt.QuestionAttempts[0].QuestionID
	q2 := started.Attempt.QuestionAttempts[1].QuestionID

	code, env = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/answer", token, gin.H{"question_id": q1, "selected": "0"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var answered service.AnswerResult
	require.NoError(t, json.Unmarshal(env.Data, &answered))
	assert.True(t, answered.Saved)
	assert.True(t, answered.IsCorrect)

	// 1-based client index for the last choice
	code, env = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/answer", token, gin.H{"question_id": q2, "selected": 4})
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &answered))
	assert.True(t, answered.IsCorrect)

	code, env = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/answer", token, gin.H{"question_id": q2, "selected": "four"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/answer", token, gin.H{"question_id": "nope", "selected": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/finish", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.JSONEq(t, `{"score":100}`, string(env.Data))

	code, env = call(t, a, http.MethodGet, "/api/attempt/"+attemptID+"/details", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var details service.AttemptDetails
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.True(t, details.Completed)
	assert.Equal(t, 120, details.TimeLimit)
	require.Len(t, details.Questions, 2)
	assert.Equal(t, "e2", details.Questions[1].Explanation)

	other, err := util.GenerateJWT("user-99", "mallory", testSecret, time.Hour)
	require.NoError(t, err)
	code, _ = call(t, a, http.MethodPost, "/api/attempt/"+attemptID+"/finish", other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, a, http.MethodGet, "/api/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(string(env.Data), `"username":"alice"`), string(env.Data))

	code, env = call(t, a, http.MethodGet, "/api/user/dashboard", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total_quizzes":1`)
}

func TestGenerationFailureOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cat := testutil.CategoryBySlug(t, db, "computer-science")
	a := Assemble(testConfig(t), db, nil, staticCompleter{reply: "no idea"})

	token, err := util.GenerateJWT("user-42", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	code, env := call(t, a, http.MethodPost, "/api/quiz/generate", token, gin.H{"category": cat.ID})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Could not generate questions for this topic, please try again", env.Message)

	code, _ = call(t, a, http.MethodPost, "/api/quiz/generate", token, gin.H{"category": "missing"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPublicCatalogAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	a := Assemble(testConfig(t), db, nil, staticCompleter{})

	code, env := call(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"up"`)

	code, env = call(t, a, http.MethodGet, "/api/category-groups", "", nil)
	assert.Equal(t, http.StatusOK, code)
	var groups []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &groups))
	assert.Len(t, groups, 6)

	code, _ = call(t, a, http.MethodGet, fmt.Sprintf("/api/categories/%s/subcategories", "missing"), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConfigReloadReachesServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cfg := testConfig(t)
	a := Assemble(cfg, db, nil, service.NewAIService(cfg.AI))

	next := *cfg
	next.AI.Model = "gpt-test"
	a.reloadConfig(&next)

	ai, ok := a.services.ai.(*service.AIService)
	require.True(t, ok)
	assert.Equal(t, "gpt-test", ai.Model())
}
