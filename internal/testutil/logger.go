package testutil

import (
	"io"

	"github.com/warelock/warelock-auth/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, 0)
}
