package operations

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(notice Notice)
}

type NotifierFunc func(notice Notice)

func (f NotifierFunc) Notify(notice Notice) { f(notice) }

// LogNotifier writes notices to the log. It is the default when the caller
// has no presentation layer of its own.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(notice Notice) {
	fields := []zap.Field{
		zap.String("level", string(notice.Level)),
		zap.String("path", notice.Path),
		zap.String("kind", string(notice.Kind)),
	}
	if notice.OperationID != uuid.Nil {
		fields = append(fields, zap.Stringer("operation_id", notice.OperationID))
	}
	if notice.Detail != "" {
		fields = append(fields, zap.String("detail", notice.Detail))
	}

	switch notice.Level {
	case LevelFailure:
		n.logger.Warn(notice.Text, fields...)
	case LevelProgress:
		n.logger.Debug(notice.Text, fields...)
	case LevelStart, LevelSuccess:
		n.logger.Info(notice.Text, fields...)
	}
}
