package testutil

import (
	"io"

	"github.com/dtroode/authd/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewWithOptions(logger.Options{Output: io.Discard})
}
