package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

func TestNewRelayFactory(t *testing.T) {
	logger := commons.NewNopLogger()
	ctx := context.Background()

	t.Run("none disables the relay", func(t *testing.T) {
		factory, err := newRelayFactory(ctx, &config.AppConfig{Relay: config.RelayConfig{Provider: "none"}}, logger, internal_type.LanguageEnglish)
		require.NoError(t, err)
		assert.Nil(t, factory)
	})

	t.Run("websocket builds a fresh relay per session", func(t *testing.T) {
		cfg := &config.AppConfig{Relay: config.RelayConfig{Provider: "websocket", WebsocketURL: "ws://localhost:9/stt"}}
		factory, err := newRelayFactory(ctx, cfg, logger, internal_type.LanguageTurkish)
		require.NoError(t, err)
		require.NotNil(t, factory)
		first, err := factory()
		require.NoError(t, err)
		second, err := factory()
		require.NoError(t, err)
		assert.NotSame(t, first, second)
	})

	t.Run("google needs no network to build", func(t *testing.T) {
		cfg := &config.AppConfig{Relay: config.RelayConfig{Provider: "google", GoogleProjectID: "coach", GoogleRegion: "global"}}
		factory, err := newRelayFactory(ctx, cfg, logger, internal_type.LanguageEnglish)
		require.NoError(t, err)
		relay, err := factory()
		require.NoError(t, err)
		assert.NotEmpty(t, relay.Name())
	})

	t.Run("gemini without a key fails", func(t *testing.T) {
		_, err := newRelayFactory(ctx, &config.AppConfig{Relay: config.RelayConfig{Provider: "gemini"}}, logger, internal_type.LanguageEnglish)
		assert.Error(t, err)
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		_, err := newRelayFactory(ctx, &config.AppConfig{Relay: config.RelayConfig{Provider: "carrier-pigeon"}}, logger, internal_type.LanguageEnglish)
		assert.Error(t, err)
	})
}

func TestNewEvaluatorWithoutKeyIsDisabled(t *testing.T) {
	evaluator, err := newEvaluator(context.Background(), &config.AppConfig{}, commons.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, evaluator)
}
