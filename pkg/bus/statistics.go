package bus

import (
	"time"

	"go.uber.org/zap"
)

type Statistics struct {
	RunTime         time.Duration
	PostCount       uint64
	PostFails       uint64
	Routed          uint64
	Delivered       uint64
	Dropped         uint64
	HandlerFailures uint64
	DataQueueLen    int
	MessageQueueLen int
}

// Throughput is the number of routed events per second of run time.
func (s Statistics) Throughput() float64 {
	if s.RunTime <= 0 {
		return 0
	}
	return float64(s.Routed) / s.RunTime.Seconds()
}

func (s Statistics) Fields() []zap.Field {
	return []zap.Field{
		zap.Duration("run_time", s.RunTime),
		zap.Uint64("post_count", s.PostCount),
		zap.Uint64("post_fails", s.PostFails),
		zap.Uint64("routed", s.Routed),
		zap.Uint64("delivered", s.Delivered),
		zap.Uint64("dropped", s.Dropped),
		zap.Uint64("handler_failures", s.HandlerFailures),
		zap.Int("data_queue_len", s.DataQueueLen),
		zap.Int("message_queue_len", s.MessageQueueLen),
		zap.Float64("throughput", s.Throughput()),
	}
}

func (s Statistics) Print(logger *zap.Logger) {
	logger.Info("engine statistics", s.Fields()...)
}
