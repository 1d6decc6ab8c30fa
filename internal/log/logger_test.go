package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndL(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	L().Sugar().Infof("hello %s", "world")
	L().Error("boom")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	if got := logs.All()[0].Message; got != "hello world" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestWithDD_NoSpan(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := WithDD(context.Background(), zap.New(core), zap.String("k", "v"))
	l.Info("msg")

	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["k"] != "v" {
		t.Fatalf("missing extra field: %#v", fields)
	}
	if _, ok := fields["dd.trace_id"]; ok {
		t.Fatalf("trace id must be absent without a span")
	}
}

func TestSetNilFallsBackToNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatal("L must never return nil")
	}
}
