// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "context"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageTurkish
}

// EvaluationRequest is the artifact handed to the evaluation collaborator.
type EvaluationRequest struct {
	Audio    []byte
	MimeType string
	Topic    string
	Topics   []string
	Language Language
}

type CriterionScores struct {
	Rapport      int `json:"rapport" validate:"min=1,max=5"`
	Organisation int `json:"organisation" validate:"min=1,max=5"`
	Delivery     int `json:"delivery" validate:"min=1,max=5"`
	LanguageUse  int `json:"languageUse" validate:"min=1,max=5"`
	Creativity   int `json:"creativity" validate:"min=1,max=5"`
}

// CriterionFeedback carries free-text notes per criterion plus the unscored
// pronunciation notes and the verbatim transcription.
type CriterionFeedback struct {
	Rapport      string `json:"rapport"`
	Organisation string `json:"organisation"`
	Delivery     string `json:"delivery"`
	LanguageUse  string `json:"languageUse"`
	Creativity   string `json:"creativity"`

	Pronunciation string `json:"pronunciation"`
	Summary       string `json:"summary"`
	Transcription string `json:"transcription"`
}

// Evaluation is the structured result returned by the collaborator.
type Evaluation struct {
	Topic        string            `json:"topic" validate:"required"`
	Scores       CriterionScores   `json:"scores" validate:"required"`
	OverallScore int               `json:"overallScore" validate:"min=0,max=100"`
	Feedback     CriterionFeedback `json:"feedback"`
}

type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}
