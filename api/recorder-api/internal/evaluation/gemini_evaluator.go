// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

const DefaultModel = "gemini-2.5-flash"

// contentGenerator is satisfied by client.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiEvaluator struct {
	logger    commons.Logger
	generator contentGenerator
	model     string
	timeout   time.Duration
	validate  *validator.Validate
}

// NewGeminiClient builds a Gemini API client. The key stays server side.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// NewGeminiEvaluator scores a recording with a single multimodal request.
// A zero timeout leaves the deadline to the caller's context.
func NewGeminiEvaluator(logger commons.Logger, client *genai.Client, model string, timeout time.Duration) internal_type.Evaluator {
	return newGeminiEvaluator(logger, client.Models, model, timeout)
}

func newGeminiEvaluator(logger commons.Logger, generator contentGenerator, model string, timeout time.Duration) *geminiEvaluator {
	if model == "" {
		model = DefaultModel
	}
	return &geminiEvaluator{
		logger:    logger,
		generator: generator,
		model:     model,
		timeout:   timeout,
		validate:  validator.New(),
	}
}

func (e *geminiEvaluator) Evaluate(ctx context.Context, req internal_type.EvaluationRequest) (*internal_type.Evaluation, error) {
	start := time.Now()
	defer func() { e.logger.Benchmark("geminiEvaluator.Evaluate", time.Since(start)) }()

	result, err := e.evaluate(ctx, req)
	if err != nil {
		e.logger.Errorf("evaluation with %s failed: %v", e.model, err)
		return nil, fmt.Errorf("%w: %w", internal_type.ErrEvaluationFailed, err)
	}
	return result, nil
}

func (e *geminiEvaluator) evaluate(ctx context.Context, req internal_type.EvaluationRequest) (*internal_type.Evaluation, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("empty audio artifact")
	}
	if req.MimeType == "" {
		return nil, errors.New("missing mime type")
	}
	if req.Language == "" {
		req.Language = internal_type.LanguageEnglish
	}
	if !req.Language.Valid() {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}

	prompt, err := RenderPrompt(req)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Audio, baseMimeType(req.MimeType)),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	resp, err := e.generator.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty response")
	}
	return e.decode(resp.Text())
}

func (e *geminiEvaluator) decode(text string) (*internal_type.Evaluation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}

	var result internal_type.Evaluation
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("decoding evaluation: %w", err)
	}
	if err := e.validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("invalid evaluation: %w", err)
	}
	return &result, nil
}

// baseMimeType drops codec parameters, e.g. "audio/ogg;codecs=opus" becomes
// "audio/ogg".
func baseMimeType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return strings.TrimSpace(mime[:i])
	}
	return mime
}
