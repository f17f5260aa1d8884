package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvironmentStr(t *testing.T) {
	cases := map[string]RapidaEnvironment{
		"production":    PRODUCTION,
		" Production\n": PRODUCTION,
		"development":   DEVELOPMENT,
		"staging":       DEVELOPMENT,
		"":              DEVELOPMENT,
	}
	for in, want := range cases {
		assert.Equal(t, want, FromEnvironmentStr(in), "input %q", in)
	}
	assert.Equal(t, "production", PRODUCTION.Get())
}
