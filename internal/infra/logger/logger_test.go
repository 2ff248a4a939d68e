package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	require.NoError(t, Configure(l, "debug", "production", &buf))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("component", "broadcast").Info("Survey broadcast finished")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Survey broadcast finished", line["message"])
	assert.Equal(t, "broadcast", line["component"])
	assert.Equal(t, "info", line["level"])
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetLevel(logrus.TraceLevel)

	err := Configure(l, "loud", "development", &buf)
	assert.Error(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestComponent(t *testing.T) {
	entry := Component("scheduler")
	assert.Equal(t, "scheduler", entry.Data["component"])
	assert.Equal(t, serviceName, entry.Data["service"])
}
