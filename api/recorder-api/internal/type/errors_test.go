package internal_type

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"denied", fmt.Errorf("open mic: %w", ErrPermissionDenied), "Microphone access needed. Allow it and try again."},
		{"too short", ErrSessionTooShort, "Recording too short, try again."},
		{"silent", ErrNoSpeechDetected, "No speech detected, try again."},
		{"empty", ErrNoAudioCaptured, "No speech detected, try again."},
		{"evaluation", fmt.Errorf("%w: upstream 500", ErrEvaluationFailed), "We could not evaluate your answer. Please try again."},
		{"unknown", errors.New("socket: connection reset"), "Something went wrong, try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestDiscardReasonsShareKind(t *testing.T) {
	for _, err := range []error{ErrSessionTooShort, ErrNoSpeechDetected, ErrNoAudioCaptured} {
		assert.ErrorIs(t, err, ErrEmptyOrSilentSession)
	}
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LanguageEnglish.Valid())
	assert.True(t, LanguageTurkish.Valid())
	assert.False(t, Language("de").Valid())
}
