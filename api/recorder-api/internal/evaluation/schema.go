// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_evaluation

import (
	"slices"

	"google.golang.org/genai"
)

func scoreSchema(criterion string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeInteger,
		Description: "Score from 1 to 5 for " + criterion + ".",
		Minimum:     genai.Ptr(1.0),
		Maximum:     genai.Ptr(5.0),
	}
}

func textSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// ResponseSchema constrains the model output to the Evaluation JSON shape.
func ResponseSchema() *genai.Schema {
	criteria := []string{"rapport", "organisation", "delivery", "languageUse", "creativity"}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"topic": textSchema("The topic of the speech. For a freestyle speech this is the most relevant topic detected from the content, otherwise the original topic."),
			"scores": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"rapport":      scoreSchema("rapport"),
					"organisation": scoreSchema("organisation"),
					"delivery":     scoreSchema("delivery"),
					"languageUse":  scoreSchema("language use"),
					"creativity":   scoreSchema("creativity"),
				},
				Required: criteria,
			},
			"overallScore": {
				Type:        genai.TypeInteger,
				Description: "Overall score out of 100, calculated based on the criteria.",
				Minimum:     genai.Ptr(0.0),
				Maximum:     genai.Ptr(100.0),
			},
			"feedback": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"rapport":       textSchema("Actionable, example-based feedback on rapport."),
					"organisation":  textSchema("Actionable, example-based feedback on organisation."),
					"delivery":      textSchema("Actionable, example-based feedback on delivery."),
					"languageUse":   textSchema("Actionable, example-based feedback on language use and grammar, with corrections."),
					"creativity":    textSchema("Actionable, example-based feedback on creativity and ideas."),
					"pronunciation": textSchema("Mispronounced words with corrections. Not scored."),
					"summary":       textSchema("A brief overall summary with key suggestions for improvement."),
					"transcription": textSchema("A verbatim transcript of the user's speech."),
				},
				Required: slices.Concat(criteria, []string{"pronunciation", "summary", "transcription"}),
			},
		},
		Required: []string{"topic", "scores", "overallScore", "feedback"},
	}
}
