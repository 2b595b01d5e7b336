package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 以内存记录器替换默认追踪器
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	saved := defaultTracer
	defaultTracer = &Tracer{provider: provider, tracer: provider.Tracer("test"), config: &Config{Enabled: true}}
	t.Cleanup(func() { defaultTracer = saved })
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInit(t *testing.T) {
	saved := defaultTracer
	t.Cleanup(func() { defaultTracer = saved })

	t.Run("默认配置", func(t *testing.T) {
		tracer, err := Init(nil)
		require.NoError(t, err)
		assert.Equal(t, "resort-fleet-backend", tracer.config.ServiceName)
		assert.NotNil(t, tracer.provider)
		assert.Same(t, tracer, defaultTracer)
		require.NoError(t, tracer.Shutdown(context.Background()))
	})

	t.Run("禁用时不创建 provider", func(t *testing.T) {
		tracer, err := Init(&Config{ServiceName: "report-worker", Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, tracer.provider)
		require.NoError(t, tracer.Shutdown(context.Background()))

		_, span := tracer.Start(context.Background(), "finance.dashboard")
		assert.False(t, span.IsRecording())
		span.End()
	})

	t.Run("采样率", func(t *testing.T) {
		for _, rate := range []float64{0, 0.25, 1} {
			tracer, err := Init(&Config{ServiceName: "sampled", SampleRate: rate, Enabled: true})
			require.NoError(t, err)
			require.NoError(t, tracer.Shutdown(context.Background()))
		}
	})
}

func TestStart_RecordsReportSpan(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := Start(context.Background(), "finance.monthly", WithReport("monthly"), WithResortID(3))
	assert.Equal(t, span, SpanFromContext(ctx))
	SetAttributes(ctx, WithRecordCount(42), WithMonths(6))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "finance.monthly", spans[0].Name())

	attrs := spans[0].Attributes()
	report, ok := attrValue(attrs, AttrReport)
	require.True(t, ok)
	assert.Equal(t, "monthly", report.AsString())
	resort, ok := attrValue(attrs, AttrResortID)
	require.True(t, ok)
	assert.Equal(t, int64(3), resort.AsInt64())
	count, ok := attrValue(attrs, AttrRecordCount)
	require.True(t, ok)
	assert.Equal(t, int64(42), count.AsInt64())
	months, ok := attrValue(attrs, AttrReportMonths)
	require.True(t, ok)
	assert.Equal(t, int64(6), months.AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSetError(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := Start(context.Background(), "finance.dashboard")
	SetError(ctx, nil)
	SetError(ctx, errors.New("记录加载失败"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "记录加载失败", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestStart_WithoutInit(t *testing.T) {
	saved := defaultTracer
	defaultTracer = nil
	t.Cleanup(func() { defaultTracer = saved })

	ctx := context.Background()
	got, span := Start(ctx, "finance.report", WithReport("monthly"))
	require.NotNil(t, span)
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	SetError(got, errors.New("ignored"))
	span.End()
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		attr attribute.KeyValue
		key  string
		want interface{}
	}{
		{"员工", WithUserID(123), "user.id", int64(123)},
		{"角色", WithStaffRole("MANAGER"), "staff.role", "MANAGER"},
		{"度假村", WithResortID(456), "resort.id", int64(456)},
		{"报表", WithReport("dashboard"), "report.name", "dashboard"},
		{"月数", WithMonths(6), "report.months", int64(6)},
		{"记录数", WithRecordCount(1200), "record.count", int64(1200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, string(tt.attr.Key))
			assert.Equal(t, tt.want, tt.attr.Value.AsInterface())
		})
	}
}
