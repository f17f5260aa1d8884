// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_google

import (
	"fmt"

	"cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

const (
	DefaultModel  = "long"
	DefaultRegion = "global"
)

// Credentials is what the relay needs to reach Cloud Speech. Empty fields are
// skipped so application default credentials still apply.
type Credentials struct {
	ProjectID       string
	APIKey          string
	CredentialsJSON string
	Region          string
	Model           string
}

type googleOption struct {
	logger        commons.Logger
	clientOptions []option.ClientOption
	projectID     string
	region        string
	model         string
	language      internal_type.Language
}

// NewGoogleOption turns credentials and the session language into client and
// recognition options.
func NewGoogleOption(logger commons.Logger, credentials Credentials, language internal_type.Language) *googleOption {
	co := make([]option.ClientOption, 0)
	if credentials.APIKey != "" {
		co = append(co, option.WithAPIKey(credentials.APIKey))
	}
	if credentials.ProjectID != "" {
		co = append(co, option.WithQuotaProject(credentials.ProjectID))
	}
	if credentials.CredentialsJSON != "" {
		co = append(co, option.WithCredentialsJSON([]byte(credentials.CredentialsJSON)))
	}

	region := credentials.Region
	if region == "" {
		region = DefaultRegion
	}
	model := credentials.Model
	if model == "" {
		logger.Warn("Model not specified, defaulting to " + DefaultModel)
		model = DefaultModel
	}
	return &googleOption{
		logger:        logger,
		clientOptions: co,
		projectID:     credentials.ProjectID,
		region:        region,
		model:         model,
		language:      language,
	}
}

// LanguageCode maps the learner language onto a BCP-47 code.
func LanguageCode(language internal_type.Language) string {
	if language == internal_type.LanguageTurkish {
		return "tr-TR"
	}
	return "en-US"
}

// SpeechToTextOptions describes the 16kHz mono LINEAR16 stream the audio graph
// produces.
func (g *googleOption) SpeechToTextOptions() *speechpb.StreamingRecognitionConfig {
	return &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   16000,
					AudioChannelCount: 1,
				},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
			},
			LanguageCodes: []string{LanguageCode(g.language)},
			Model:         g.model,
		},
		StreamingFeatures: &speechpb.StreamingRecognitionFeatures{
			InterimResults: true,
		},
	}
}

func (g *googleOption) GetRecognizer() string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", g.projectID, g.region)
}

func (g *googleOption) GetSpeechToTextClientOptions() []option.ClientOption {
	if g.region != DefaultRegion {
		return append(g.clientOptions, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:443", g.region)))
	}
	return g.clientOptions
}
