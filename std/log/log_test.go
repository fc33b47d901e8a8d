package log_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/named-data/impatience/std/log"
	"github.com/stretchr/testify/require"
)

type tag struct{}

func (tag) String() string { return "component" }

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"} {
		level, err := log.ParseLevel(strings.ToLower(name))
		require.NoError(t, err)
		require.Equal(t, name, level.String())
	}
	_, err := log.ParseLevel("LOUD")
	require.Error(t, err)
	require.Equal(t, "UNKNOWN", log.Level(1).String())

	var level log.Level
	require.NoError(t, level.UnmarshalText([]byte("warn")))
	require.Equal(t, log.LevelWarn, level)
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewText(&buf)
	require.Equal(t, log.LevelInfo, logger.Level())

	logger.Debug(nil, "hidden")
	require.Empty(t, buf.String())

	logger.Info(tag{}, "shown", "k", 1)
	require.Contains(t, buf.String(), "level=INFO")
	require.Contains(t, buf.String(), "tag=component")
	require.Contains(t, buf.String(), "k=1")

	require.Equal(t, log.LevelInfo, logger.SetLevel(log.LevelTrace))
	buf.Reset()
	logger.Trace("plain", "traced")
	require.Contains(t, buf.String(), "level=TRACE")
	require.Contains(t, buf.String(), "tag=plain")
	require.Contains(t, buf.String(), "source=")
}

func TestJsonDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := log.SetDefault(log.NewJson(&buf))
	defer log.SetDefault(prev)

	log.Warn(tag{}, "careful", "n", 3)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "careful", entry["msg"])
	require.Equal(t, "component", entry["tag"])
	require.Equal(t, float64(3), entry["n"])
	require.False(t, log.HasTrace())
}
