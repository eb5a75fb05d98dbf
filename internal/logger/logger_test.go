package logger

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	defer Setup("info", "text")

	Setup("debug", "json")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, ok)

	Setup("nonsense", "")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	_, ok = log.StandardLogger().Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}
