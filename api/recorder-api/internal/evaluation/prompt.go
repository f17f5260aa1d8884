// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
)

// FreestyleFallbackTopic is offered to the model when no candidate topic fits.
const FreestyleFallbackTopic = "Freestyle (Talk about any topic you want)"

var promptTemplate = pongo2.Must(pongo2.FromString(`{% autoescape off %}
You are an expert English speaking evaluator, specializing in coaching non-native speakers. The user is likely an English learner from Turkey.
I will provide you with an audio recording of this person speaking on a given topic.
Your task is to analyze the speech and provide a detailed, highly actionable evaluation in JSON format.
{% if freestyle %}
**Part 0: Topic Detection**
The user chose to do a "Freestyle" speech. Before evaluating, you MUST first analyze the user's speech and determine which of the following predefined topics is the most relevant match.

Available Topics: {{ topics }}

Select the single best-matching topic from that list. This detected topic MUST be used as the 'topic' in your final JSON response. All evaluation should then proceed as if the user was speaking on this detected topic. If no topic is a good match, you can select '{{ fallback }}'.
{% else %}
Topic: "{{ topic }}"
{% endif %}
**Part 1: Scoring & Feedback**
Evaluate the speaker based on the following five criteria, each on a scale of 1 to 5 (1=Needs Significant Improvement, 5=Excellent):
{% for criterion in criteria %}{{ forloop.Counter }}. **{{ criterion.Name }}**: {{ criterion.Description }}
{% endfor %}
Based on these five criteria scores, also provide an overall score out of 100.

For each of the five criteria, provide actionable feedback with specific examples.
- If grammar was weak, give an example from their speech and show the corrected version.
- If vocabulary could be better, suggest alternative words.
- For delivery, comment on specific moments of good or unclear speech.

**Part 2: Pronunciation Analysis (Feedback Only)**
Provide a separate analysis of the speaker's pronunciation. It is NOT a scored criterion and must NOT influence the five scores or the overall score.
Identify specific words that were mispronounced and give the correct pronunciation. Be mindful of common challenges for Turkish speakers ('w' vs 'v', 'th' sounds, vowels as in 'ship' vs 'sheep').

**Part 3: Transcription**
Provide a verbatim transcript of the user's speech.

**Final Output:**
Your entire response must be a single JSON object matching the provided schema. The 'topic' field MUST be filled, either with the original topic or the one you detected for the freestyle speech.
{% if language == "tr" %}Write every feedback field and the summary in Turkish. Keep the transcription in the language that was spoken.{% else %}Write every feedback field and the summary in English.{% endif %}
{% endautoescape %}`))

type criterion struct {
	Name        string
	Description string
}

var criteria = []criterion{
	{"Rapport", "How well the speaker connects with the listener. Their tone, engagement, and confidence."},
	{"Organisation", "The logical structure and coherence of their speech. Are ideas presented clearly?"},
	{"Delivery", "The clarity, pace, and intonation. Is the speaker easy to understand?"},
	{"Language Use", "The richness of vocabulary and correctness of grammar."},
	{"Creativity", "The originality of their thoughts and expression."},
}

// IsFreestyle reports whether the learner picked the open topic, in either
// interface language.
func IsFreestyle(topic string) bool {
	t := strings.ToLower(topic)
	return strings.Contains(t, "freestyle") || strings.Contains(t, "serbest")
}

// RenderPrompt builds the instruction text sent alongside the audio.
func RenderPrompt(req internal_type.EvaluationRequest) (string, error) {
	topics, err := json.Marshal(append([]string{}, req.Topics...))
	if err != nil {
		return "", err
	}
	out, err := promptTemplate.Execute(pongo2.Context{
		"freestyle": IsFreestyle(req.Topic),
		"topic":     req.Topic,
		"topics":    string(topics),
		"fallback":  FreestyleFallbackTopic,
		"criteria":  criteria,
		"language":  string(req.Language),
	})
	if err != nil {
		return "", fmt.Errorf("rendering evaluation prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}
