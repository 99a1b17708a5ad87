package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// Core is a zapcore.Core that records error logs as OpenTelemetry spans.
type Core struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewCore creates a new core that forwards errors to the global tracer provider.
func NewCore(enab zapcore.LevelEnabler) zapcore.Core {
	return &Core{
		LevelEnabler: enab,
		tracer:       otel.Tracer("github.com/clawtake/clawtake/logs"),
	}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	return &Core{
		LevelEnabler: c.LevelEnabler,
		tracer:       c.tracer,
		fields:       append(c.fields[:len(c.fields):len(c.fields)], fields...),
	}
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) && ent.Level >= zapcore.ErrorLevel {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if ent.Level < zapcore.ErrorLevel {
		return nil
	}

	_, span := c.tracer.Start(context.Background(), "error."+errorCategory(ent))
	defer span.End()

	span.SetAttributes(Attributes(ent, append(c.fields, fields...))...)
	return nil
}

func (c *Core) Sync() error {
	return nil
}

// Attributes converts a log entry and its fields into span attributes.
func Attributes(ent zapcore.Entry, fields []zapcore.Field) []attribute.KeyValue {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}

	attrs := []attribute.KeyValue{
		attribute.String("error.message", ent.Message),
		attribute.String("error.level", ent.Level.String()),
		attribute.String("error.caller", ent.Caller.TrimmedPath()),
	}
	if ent.LoggerName != "" {
		attrs = append(attrs, attribute.String("logger", ent.LoggerName))
	}

	for key, value := range enc.Fields {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		default:
			if s, ok := v.(interface{ String() string }); ok {
				attrs = append(attrs, attribute.String(key, s.String()))
			}
		}
	}

	return attrs
}

// errorCategory groups errors by the package that logged them.
func errorCategory(ent zapcore.Entry) string {
	switch fn := ent.Caller.Function; {
	case strings.Contains(fn, "/internal/database"):
		return "database"
	case strings.Contains(fn, "/internal/redis"), strings.Contains(fn, "/middleware/ratelimit"):
		return "redis"
	case strings.Contains(fn, "/internal/rest"):
		return "rest"
	case strings.Contains(fn, "/internal/setup"):
		return "setup"
	default:
		return "application"
	}
}
