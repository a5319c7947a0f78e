package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLogger_ContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithCustomerID(ctx, "cust-9")
	logg.Info(ctx, "hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-123"`, `"customer_id":"cust-9"`, `"service":"test"`, `"hello"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
}

func TestLogger_ErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("kaput"))

	out := buf.String()
	if !strings.Contains(out, `"error":"kaput"`) {
		t.Fatalf("expected error field, got %s", out)
	}
	if !strings.Contains(out, "stack") {
		t.Fatalf("expected stack field, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG").String() != "debug" {
		t.Fatal("expected debug level")
	}
	if ParseLevel("").String() != "info" {
		t.Fatal("empty should default to info")
	}
	if ParseLevel("nonsense").String() != "info" {
		t.Fatal("garbage should default to info")
	}
}
