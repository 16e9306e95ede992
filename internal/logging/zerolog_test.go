package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	ctx := WithRequestID(context.Background(), "abc")
	log.Info(ctx, "login", "user_id", "u-1", "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "login", lines[0]["message"])
	assert.Equal(t, "u-1", lines[0]["user_id"])
	assert.Equal(t, "boom", lines[0]["err"])
	assert.Equal(t, "abc", lines[0]["request_id"])
}

func TestZerologLogger_WithAndOddArgs(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf)).With("module", "rest")

	log.Warn(context.Background(), "odd", "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "rest", lines[0]["module"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestNewServerLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := newServerLogger(&buf, false)
	log.Debug(context.Background(), "hidden")
	log.Error(context.Background(), "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])

	buf.Reset()
	debug := newServerLogger(&buf, true)
	debug.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
}
