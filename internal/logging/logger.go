package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds a console logger writing to stdout and installs it as the zap global.
func Setup(logLevel string) (*zap.Logger, *zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level '%s'", logLevel)
	}

	atom := zap.NewAtomicLevelAt(level)
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), atom)
	logger := zap.New(core)
	zap.ReplaceGlobals(logger)

	return logger, &atom, nil
}
