package zerolog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		log       func(l *Logger)
		wantEmpty bool
		contains  []string
	}{
		{
			name:     "info is written at info level",
			level:    "info",
			log:      func(l *Logger) { l.Info("user created", "user", "ana1") },
			contains: []string{"user created", "user=ana1", "service=jungle", "INFO"},
		},
		{
			name:      "debug is dropped at info level",
			level:     "INFO",
			log:       func(l *Logger) { l.Debug("entering function") },
			wantEmpty: true,
		},
		{
			name:     "debug is written at debug level",
			level:    "DEBUG",
			log:      func(l *Logger) { l.Debug("entering function", "func", "CreateUser") },
			contains: []string{"entering function", "func=CreateUser"},
		},
		{
			name:     "errors are rendered",
			level:    "warn",
			log:      func(l *Logger) { l.Error("store failed", "error", errors.New("boom")) },
			contains: []string{"store failed", "error=boom", "ERROR"},
		},
		{
			name:      "warn is dropped at error level",
			level:     "error",
			log:       func(l *Logger) { l.Warn("slow query") },
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewZerologLoggerWithWriter("jungle", buf).(*Logger)
			l.SetLevel(tt.level)
			tt.log(l)

			if tt.wantEmpty {
				assert.Empty(t, buf.String())
				return
			}
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLoggerWithWriter("jungle", buf)
	l.WithContext(map[string]interface{}{"component": "mongo"}).Info("connected")

	assert.Contains(t, buf.String(), "component=mongo")
	assert.Contains(t, buf.String(), "connected")
}

func TestLogger_OddKeyvals(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLoggerWithWriter("jungle", buf)
	l.Info("message", "dangling", 42, "key")

	assert.Contains(t, buf.String(), "message")
	assert.NotContains(t, buf.String(), "key=")
}

func TestNewNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("discarded")
	l.SetLevel("debug")
	assert.NotNil(t, l.WithContext(map[string]interface{}{"a": 1}))
}
