package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLogger_WritesHeaderEntriesAndFooter checks the session layout
func TestNewLogger_WritesHeaderEntriesAndFooter(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(filepath.Join(dir, "logs"), "search")
	require.NoError(t, err)

	l.Info("loaded %d weeks", 52)
	l.Warning("skipped %s", "2020-01-07")
	l.Eval("#%d %s -> $%.2f", 1, "EF=2.00", 1234.5)
	l.LogError("simulate", assert.AnError)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(l.GetLogPath())
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(filepath.Base(l.GetLogPath()), "search_"))
	assert.Contains(t, content, "SENTIMENT DCA SESSION STARTED")
	assert.Contains(t, content, "[INFO] loaded 52 weeks")
	assert.Contains(t, content, "[WARN] skipped 2020-01-07")
	assert.Contains(t, content, "[EVAL] #1 EF=2.00 -> $1234.50")
	assert.Contains(t, content, "[ERROR] simulate: "+assert.AnError.Error())
	assert.Contains(t, content, "SENTIMENT DCA SESSION ENDED")
}

// TestLogger_NilSafe checks a nil logger is a no-op
func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Eval("ignored")
		_ = l.Close()
	})
}
