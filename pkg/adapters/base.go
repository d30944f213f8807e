package adapters

import "github.com/goliatone/go-webpush/pkg/interfaces/logger"

// BaseAdapter provides shared helpers for simple adapters.
type BaseAdapter struct {
	logger logger.Logger
}

func NewBaseAdapter(l logger.Logger) BaseAdapter {
	if l == nil {
		l = &logger.Nop{}
	}
	return BaseAdapter{logger: l}
}

func (b BaseAdapter) LogSuccess(name string, msg Message) {
	b.Logger().Debug("adapter delivered message", "adapter", name, "command_id", msg.CommandID, "endpoint", msg.Subscription.Endpoint)
}

func (b BaseAdapter) LogFailure(name string, msg Message, err error) {
	b.Logger().Error("adapter delivery failed", "adapter", name, "command_id", msg.CommandID, "endpoint", msg.Subscription.Endpoint, "error", err)
}

// Logger exposes the adapter logger for structured diagnostics.
func (b BaseAdapter) Logger() logger.Logger {
	if b.logger == nil {
		return &logger.Nop{}
	}
	return b.logger
}
