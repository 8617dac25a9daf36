package whatsapp

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// zapLogger routes whatsmeow's printf-style logging into zap.
type zapLogger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger, module string) waLog.Logger {
	return &zapLogger{logger: logger.With(zap.String("module", module))}
}

func (l *zapLogger) Debugf(msg string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Infof(msg string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Warnf(msg string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Errorf(msg string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Sub(module string) waLog.Logger {
	return &zapLogger{logger: l.logger.With(zap.String("submodule", module))}
}

var _ waLog.Logger = (*zapLogger)(nil)
