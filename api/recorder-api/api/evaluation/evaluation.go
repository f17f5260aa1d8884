// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package evaluation_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

type evaluationApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	evaluator internal_type.Evaluator
}

// EvaluationForm is the multipart body of POST /v1/evaluations; the audio
// itself travels in the "audio" file part.
type EvaluationForm struct {
	MimeType string   `form:"mime_type"`
	Topic    string   `form:"topic" binding:"required"`
	Topics   []string `form:"topics"`
	Language string   `form:"language" binding:"omitempty,oneof=en tr"`
}

// ErrorResponse is what every failed request returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewEvaluationApi(cfg *config.AppConfig, logger commons.Logger, evaluator internal_type.Evaluator) *evaluationApi {
	return &evaluationApi{cfg: cfg, logger: logger, evaluator: evaluator}
}

// Evaluate scores one uploaded recording. The API key of the model never
// leaves the server.
func (api *evaluationApi) Evaluate(c *gin.Context) {
	start := time.Now()
	defer func() { api.logger.Benchmark("evaluationApi.Evaluate", time.Since(start)) }()

	if api.evaluator == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "evaluation is not configured"})
		return
	}

	var form EvaluationForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	header, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "audio file is required"})
		return
	}
	limit := int64(api.cfg.MaxUploadMB) << 20
	if header.Size == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: internal_type.UserMessage(internal_type.ErrNoAudioCaptured)})
		return
	}
	if header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("audio exceeds %d MB", api.cfg.MaxUploadMB)})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable audio file"})
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable audio file"})
		return
	}

	mimeType := form.MimeType
	if mimeType == "" {
		mimeType = header.Header.Get("Content-Type")
	}
	if mimeType == "" || !strings.HasPrefix(mimeType, "audio/") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unsupported mime type %q", mimeType)})
		return
	}

	language := internal_type.Language(form.Language)
	if language == "" {
		language = internal_type.LanguageEnglish
	}

	result, err := api.evaluator.Evaluate(c.Request.Context(), internal_type.EvaluationRequest{
		Audio:    audio,
		MimeType: mimeType,
		Topic:    form.Topic,
		Topics:   parseTopics(form.Topics),
		Language: language,
	})
	if err != nil {
		api.logger.Errorw("evaluation request failed", "topic", form.Topic, "bytes", len(audio), "error", err.Error())
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, ErrorResponse{Error: internal_type.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseTopics accepts repeated form fields, a comma separated list or a JSON
// array in a single field.
func parseTopics(raw []string) []string {
	if len(raw) == 1 {
		value := strings.TrimSpace(raw[0])
		if strings.HasPrefix(value, "[") {
			var topics []string
			if err := json.Unmarshal([]byte(value), &topics); err == nil {
				return utils.CompactStrings(topics)
			}
		}
		if strings.Contains(value, ",") {
			return utils.CompactStrings(strings.Split(value, ","))
		}
	}
	return utils.CompactStrings(raw)
}
