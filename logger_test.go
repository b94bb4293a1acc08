package nativecol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
}

func (r *recordingLogger) Debug(msg string, keyvals ...any) { r.messages = append(r.messages, "debug:"+msg) }
func (r *recordingLogger) Info(msg string, keyvals ...any)  { r.messages = append(r.messages, "info:"+msg) }
func (r *recordingLogger) Warn(msg string, keyvals ...any)  { r.messages = append(r.messages, "warn:"+msg) }
func (r *recordingLogger) Error(msg string, keyvals ...any) { r.messages = append(r.messages, "error:"+msg) }

func TestDefaultLoggerIsNoOp(t *testing.T) {
	SetLogger(nil)
	require.IsType(t, &noOpLogger{}, GetLogger())
	// should not panic
	GetLogger().Info("hello")
}

func TestSetLoggerOverridesGlobal(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	defer SetLogger(nil)

	GetLogger().Warn("dropping unknown setting", "name", "foo")
	require.Equal(t, []string{"warn:dropping unknown setting"}, rec.messages)
}

func TestGetLoggerHelperFallsBackToDefault(t *testing.T) {
	SetLogger(nil)
	require.Equal(t, GetLogger(), getLoggerHelper(nil))
}
