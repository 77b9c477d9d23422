package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	WithPlayer(WithRequest(logrus.NewEntry(log), "req-1", "analyze-risk"), "p1").Info("scored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "analyze-risk", entry["operation"])
	assert.Equal(t, "p1", entry["player_id"])
	assert.Equal(t, "scored", entry["msg"])
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", "text", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid_level=chatty")
}

func TestWithPlayerEmpty(t *testing.T) {
	e := Discard()
	assert.Same(t, e, WithPlayer(e, ""))
}
