package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestNewNopLogger() {
	logger := NewNopLogger()
	suite.NotNil(logger)

	// Should not panic or produce output
	logger.Info("discarded message")
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	err := logger.Sync()
	suite.NoError(err)
}

func (suite *LoggerTestSuite) TestLoggerLogging() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)

	// These should not panic
	logger.Info("test info message")
	logger.Debug("test debug message")
	logger.Warn("test warn message")
	logger.Error("test error message")
}
