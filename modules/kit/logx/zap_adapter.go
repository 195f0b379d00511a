package logx

import (
	"context"

	"go.uber.org/zap"

	"Vic2Economy/modules/kit/tracex"
)

// Logger 是各层共用的日志接口，字段用 zap.Field。
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	// With 返回固定带上 fields 的子 Logger。
	With(fields ...zap.Field) Logger
	// WithContext 带上 ctx 里的 trace_id / span_id。
	WithContext(ctx context.Context) Logger
}

// Nop 丢弃所有日志，测试和未配置日志时使用。
func Nop() Logger {
	return NewZapLogger(nil)
}

type ZapLogger struct {
	logger *zap.Logger
}

func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l}
}

// TraceFields 取出 ctx 上的 trace_id / span_id 字段，都没有时返回 nil。
func TraceFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if tid, ok := tracex.TraceIDFrom(ctx); ok {
		fields = append(fields, zap.String("trace_id", tid))
	}
	if sid, ok := tracex.SpanIDFrom(ctx); ok {
		fields = append(fields, zap.String("span_id", sid))
	}
	return fields
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	return z.With(TraceFields(ctx)...)
}

func (z *ZapLogger) With(fields ...zap.Field) Logger {
	if z == nil {
		return NewZapLogger(nil)
	}
	if len(fields) == 0 {
		return z
	}
	return &ZapLogger{logger: z.logger.With(fields...)}
}

// Zap 返回底层 zap.Logger，给 gorm 日志这类要原生 zap 的组件。
func (z *ZapLogger) Zap() *zap.Logger { return z.logger }

func (z *ZapLogger) Debug(msg string, fields ...zap.Field) { z.logger.Debug(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...zap.Field)  { z.logger.Info(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...zap.Field)  { z.logger.Warn(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...zap.Field) { z.logger.Error(msg, fields...) }
