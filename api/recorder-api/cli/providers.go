// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package cli

import (
	"context"
	"fmt"

	internal_evaluation "github.com/rapidaai/speaking-coach/api/recorder-api/internal/evaluation"
	internal_relay_gemini "github.com/rapidaai/speaking-coach/api/recorder-api/internal/relay/gemini"
	internal_relay_google "github.com/rapidaai/speaking-coach/api/recorder-api/internal/relay/google"
	internal_relay_websocket "github.com/rapidaai/speaking-coach/api/recorder-api/internal/relay/websocket"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

// newRelayFactory picks the live transcription backend named by the relay
// provider. A nil factory disables live transcription.
func newRelayFactory(ctx context.Context, cfg *config.AppConfig, logger commons.Logger, language internal_type.Language) (internal_type.RelayFactory, error) {
	switch cfg.Relay.Provider {
	case "", "none":
		return nil, nil
	case "websocket":
		return func() (internal_type.TranscriptionRelay, error) {
			return internal_relay_websocket.NewWebsocketRelay(logger, cfg.Relay.WebsocketURL, language), nil
		}, nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini relay needs GEMINI__API_KEY")
		}
		client, err := internal_evaluation.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		return func() (internal_type.TranscriptionRelay, error) {
			return internal_relay_gemini.NewGeminiRelay(logger, client, cfg.Relay.GeminiModel, language), nil
		}, nil
	case "google":
		credentials := internal_relay_google.Credentials{
			ProjectID:       cfg.Relay.GoogleProjectID,
			APIKey:          cfg.Relay.GoogleAPIKey,
			CredentialsJSON: cfg.Relay.GoogleCredentialsJSON,
			Region:          cfg.Relay.GoogleRegion,
			Model:           cfg.Relay.GoogleModel,
		}
		return func() (internal_type.TranscriptionRelay, error) {
			return internal_relay_google.NewGoogleRelay(logger, credentials, language), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown relay provider %q", cfg.Relay.Provider)
	}
}

// newEvaluator returns nil when no Gemini API key is configured.
func newEvaluator(ctx context.Context, cfg *config.AppConfig, logger commons.Logger) (internal_type.Evaluator, error) {
	if cfg.Gemini.APIKey == "" {
		logger.Warnf("GEMINI__API_KEY is not set, evaluation is disabled")
		return nil, nil
	}
	client, err := internal_evaluation.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
	}
	return internal_evaluation.NewGeminiEvaluator(logger, client, cfg.Gemini.Model, cfg.Gemini.RequestTimeout()), nil
}
