package util

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrGenerationFailed    = errors.New("question generation failed")
	ErrUpstreamUnavailable = errors.New("question service unavailable")
	ErrAttemptCompleted    = errors.New("attempt already completed")

	// 生成结果解析失败的原因
	ErrNoJSONObject  = errors.New("no JSON object in model output")
	ErrMalformedJSON = errors.New("malformed JSON in model output")
)
