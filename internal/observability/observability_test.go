package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "insta-lite-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	span, ctx := NewSpan(context.Background(), "feed.get")
	assert.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.End()
}

func TestSpan_FailRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	span, _ := NewSpan(context.Background(), "FeedService.AddToFeed", PhotoAttr(7), UserAttr("creator_id", 3))
	boom := errors.New("boom")
	assert.Same(t, boom, span.Fail(boom))
	assert.NoError(t, span.Fail(nil))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "FeedService.AddToFeed", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("photo_id", 7))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "ParentBased")
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *Span
	span.AddAttributes(PhotoAttr(1))
	span.SetError(errors.New("ignored"))
	span.End()
}

type metricsProbe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestDatabaseMetrics_ObservesQueries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Use(NewDatabaseMetrics()))
	require.NoError(t, db.AutoMigrate(&metricsProbe{}))

	require.NoError(t, db.Create(&metricsProbe{Name: "a"}).Error)
	var got []metricsProbe
	require.NoError(t, db.Find(&got).Error)

	assert.Len(t, got, 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), 2)
}
