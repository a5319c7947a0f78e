package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestDBBindsContext(t *testing.T) {
	conn := openSQLite(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatalf("expected statement-bound connection")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("context did not flow through WithContext")
	}
}

func TestDBNilContextReturnsRawHandle(t *testing.T) {
	conn := openSQLite(t)
	base := NewBase(conn)

	if base.DB(nil) != conn {
		t.Fatalf("expected nil context to return the raw connection")
	}
}
