package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// TestLogger verifies that a logger writes to the requested file and carries
// the application and environment fields on every entry.
func TestLogger(t *testing.T) {
	logFile, err := os.CreateTemp(t.TempDir(), "*")
	assert.NoError(t, err)

	logger := Logger(logrus.New(), logFile.Name(), "silver-etl", "unit-test")

	msg := uuid.New()
	logger.Info(msg)

	data, err := io.ReadAll(logFile)
	assert.NoError(t, err)

	line := string(data)
	assert.Contains(t, line, msg)
	assert.Contains(t, line, "application=silver-etl")
	assert.Contains(t, line, "environment=unit-test")
}

func TestLoggerAppends(t *testing.T) {
	logFile, err := os.CreateTemp(t.TempDir(), "*")
	assert.NoError(t, err)

	first := uuid.New()
	Logger(logrus.New(), logFile.Name(), "silver-etl", "unit-test").Info(first)

	second := uuid.New()
	Logger(logrus.New(), logFile.Name(), "silver-etl", "unit-test").Info(second)

	data, err := io.ReadAll(logFile)
	assert.NoError(t, err)
	assert.Contains(t, string(data), first)
	assert.Contains(t, string(data), second)
}

// An unwritable output file falls back to stderr rather than failing.
func TestLoggerBadOutputFile(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "missing", "dir", "etl.log")

	logger := Logger(logrus.New(), badPath, "silver-etl", "unit-test")
	assert.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("still logging") })
}

func TestPackageLoggersInitialized(t *testing.T) {
	assert.NotNil(t, ETL)
	assert.NotNil(t, Source)
	assert.NotNil(t, Sink)
}
