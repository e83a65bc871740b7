package makefoods

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTurnLogger_Flush(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileTurnLogger(&buf)

	require.NoError(t, l.LogTurn(TurnLog{Operation: "send", Output: "hi"}))
	require.NoError(t, l.LogTurn(TurnLog{Operation: "explain", Error: "boom"}))
	require.NoError(t, l.Flush())

	var doc struct {
		ChatSession struct {
			Turns []TurnLog `json:"turns"`
		} `json:"chat_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.ChatSession.Turns, 2)
	assert.Equal(t, "hi", doc.ChatSession.Turns[0].Output)
	assert.Equal(t, "boom", doc.ChatSession.Turns[1].Error)
}

func TestFileTurnLogger_NilWriter(t *testing.T) {
	l := NewFileTurnLogger(nil)
	require.NoError(t, l.LogTurn(TurnLog{Operation: "send"}))
	assert.NoError(t, l.Flush())
}

func TestStdoutTurnLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &StdoutTurnLogger{w: &buf}

	require.NoError(t, l.LogTurn(TurnLog{Operation: "send", Duration: time.Second}))
	require.NoError(t, l.LogTurn(TurnLog{Operation: "detail"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"operation":"send"`)
	assert.Contains(t, lines[0], `"duration_ns":1000000000`)
}

func TestNewTurnLogFilePath(t *testing.T) {
	path := NewTurnLogFilePath("logs", "us.anthropic.claude:0/v1")
	assert.True(t, strings.HasPrefix(path, "logs/"))
	assert.True(t, strings.HasSuffix(path, ".us.anthropic.claude_0_v1.json"), path)
}
