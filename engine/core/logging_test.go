package core

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLogLevelFromEnvironment(t *testing.T) {
	cases := map[string]log.Level{
		"":        log.DebugLevel,
		"debug":   log.DebugLevel,
		"info":    log.InfoLevel,
		"WARN":    log.WarnLevel,
		"Error":   log.ErrorLevel,
		"verbose": log.DebugLevel,
	}
	for value, want := range cases {
		t.Setenv("VEGA_LOG_LEVEL", value)
		assert.Equal(t, want, logLevel(), "VEGA_LOG_LEVEL=%q", value)
	}
}
