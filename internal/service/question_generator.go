package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"
	"quiz_platform_backend/pkg/tracing"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type GenerateRequest struct {
	Topic      string
	Difficulty model.Difficulty
	Count      int
	OriginHint string
}

// GeneratedQuestion has passed validation: 4 choices, index in 0..3,
// non-empty text.
type GeneratedQuestion struct {
	Question           string   `json:"question"`
	Choices            []string `json:"choices"`
	CorrectChoiceIndex int      `json:"correct_choice_index"`
	Explanation        string   `json:"explanation"`
	References         []string `json:"references"`
}

// GenerationResult is never an error for the caller: an empty Questions
// slice is a normal outcome. Err records why nothing usable came back.
type GenerationResult struct {
	Questions []GeneratedQuestion
	Dropped   int
	Raw       string
	Err       error
}

type QuestionGenerator struct {
	client ChatCompleter
	sem    *semaphore.Weighted
}

// NewQuestionGenerator bounds the number of in-flight upstream calls to
// maxConcurrent so a slow provider cannot tie up every request worker.
func NewQuestionGenerator(client ChatCompleter, maxConcurrent int64) *QuestionGenerator {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &QuestionGenerator{
		client: client,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

func (g *QuestionGenerator) Generate(ctx context.Context, req GenerateRequest) *GenerationResult {
	ctx, span := tracing.Tracer.Start(ctx, "QuestionGenerator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("quiz.topic", req.Topic),
		attribute.String("quiz.difficulty", string(req.Difficulty)),
		attribute.Int("quiz.count", req.Count),
	)

	if err := g.sem.Acquire(ctx, 1); err != nil {
		monitoring.GenerationCounter.WithLabelValues("upstream_error").Inc()
		return &GenerationResult{Err: fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)}
	}
	start := time.Now()
	raw, err := g.client.Complete(ctx, BuildGenerationMessages(req))
	g.sem.Release(1)
	monitoring.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, util.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
		}
		logger.Log.Warn("question service call failed", zap.String("topic", req.Topic), zap.Error(err))
		monitoring.GenerationCounter.WithLabelValues("upstream_error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return &GenerationResult{Err: err}
	}

	questions, dropped, err := ParseQuestions(raw)
	result := &GenerationResult{Questions: questions, Dropped: dropped, Raw: raw, Err: err}
	monitoring.QuestionsDropped.Add(float64(dropped))
	span.SetAttributes(attribute.Int("quiz.accepted", len(questions)), attribute.Int("quiz.dropped", dropped))

	switch {
	case err != nil:
		logger.Log.Warn("unparseable question output",
			zap.String("topic", req.Topic),
			zap.Int("raw_length", len(raw)),
			zap.Error(err),
		)
		monitoring.GenerationCounter.WithLabelValues("parse_error").Inc()
	case len(questions) == 0:
		logger.Log.Warn("question output had no valid items", zap.String("topic", req.Topic), zap.Int("dropped", dropped))
		monitoring.GenerationCounter.WithLabelValues("empty").Inc()
	default:
		if dropped > 0 {
			logger.Log.Info("dropped invalid generated questions", zap.String("topic", req.Topic), zap.Int("dropped", dropped))
		}
		monitoring.GenerationCounter.WithLabelValues("ok").Inc()
	}
	return result
}

const generationSystemPrompt = "Return ONLY valid JSON. No markdown, no extra text."

// BuildGenerationMessages renders the strict prompt contract.
func BuildGenerationMessages(req GenerateRequest) []AIChatMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "You MUST generate exactly %d multiple-choice questions about %q at %q difficulty.\n", req.Count, req.Topic, string(req.Difficulty))
	if req.OriginHint != "" {
		fmt.Fprintf(&b, "\nIMPORTANT: %s\n", req.OriginHint)
	}
	b.WriteString(`
Return ONLY VALID JSON in EXACTLY this format:

{
  "questions": [
    {
      "question": "string",
      "choices": ["A", "B", "C", "D"],
      "correct_choice_index": 0,
      "explanation": "string",
      "references": ["url1", "url2"]
    }
  ]
}

STRICT RULES:
- "choices" must ALWAYS contain exactly 4 answer options.
- "correct_choice_index" MUST be an integer: 0, 1, 2, or 3, and MUST match the correct answer in "choices".
- Do not include answer text like "Correct answer: A". Only provide the index.
- The explanation must be short and factual.
- No commentary, notes, markdown or code fences outside the JSON object.
- No additional fields.
`)
	return []AIChatMessage{
		{Role: "system", Content: generationSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

var (
	fenceReplacer  = strings.NewReplacer("```json", "", "```JSON", "", "```", "")
	escapeReplacer = strings.NewReplacer(
		`\(`, "(", `\)`, ")",
		`\[`, "[", `\]`, "]",
		`\{`, "{", `\}`, "}",
		`\n`, " ",
	)
	unicodeEscape = regexp.MustCompile(`\\u[0-9A-Fa-f]{4}`)
)

// ParseQuestions turns untrusted model output into validated questions.
// It returns ErrNoJSONObject or ErrMalformedJSON when nothing can be
// parsed; otherwise individual bad items are dropped and counted.
func ParseQuestions(raw string) ([]GeneratedQuestion, int, error) {
	cleaned := escapeReplacer.Replace(fenceReplacer.Replace(strings.TrimSpace(raw)))

	obj, ok := extractJSONObject(cleaned)
	if !ok {
		return nil, 0, util.ErrNoJSONObject
	}

	var env struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(obj), &env); err != nil {
		// one cleanup pass: drop unicode escapes and raw newlines
		retry := unicodeEscape.ReplaceAllString(obj, "")
		retry = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(retry)
		if err := json.Unmarshal([]byte(retry), &env); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", util.ErrMalformedJSON, err)
		}
	}

	questions := make([]GeneratedQuestion, 0, len(env.Questions))
	dropped := 0
	for _, item := range env.Questions {
		q, ok := validateQuestion(item)
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, q)
	}
	return questions, dropped, nil
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func validateQuestion(raw json.RawMessage) (GeneratedQuestion, bool) {
	var item map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&item); err != nil {
		return GeneratedQuestion{}, false
	}

	text, _ := item["question"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return GeneratedQuestion{}, false
	}

	rawChoices, ok := item["choices"].([]interface{})
	if !ok || len(rawChoices) != model.ChoiceCount {
		return GeneratedQuestion{}, false
	}
	choices := make([]string, 0, model.ChoiceCount)
	for _, c := range rawChoices {
		switch v := c.(type) {
		case string:
			choices = append(choices, strings.TrimSpace(v))
		case json.Number:
			choices = append(choices, v.String())
		case bool:
			choices = append(choices, cast.ToString(v))
		default:
			return GeneratedQuestion{}, false
		}
	}

	idx, err := util.CoerceInt(item["correct_choice_index"])
	if err != nil || idx < 0 || idx >= model.ChoiceCount {
		return GeneratedQuestion{}, false
	}

	explanation, _ := item["explanation"].(string)

	var refs []string
	if list, ok := item["references"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
				refs = append(refs, strings.TrimSpace(s))
			}
		}
	}
	if refs == nil {
		refs = []string{}
	}

	return GeneratedQuestion{
		Question:           text,
		Choices:            choices,
		CorrectChoiceIndex: idx,
		Explanation:        strings.TrimSpace(explanation),
		References:         refs,
	}, true
}
