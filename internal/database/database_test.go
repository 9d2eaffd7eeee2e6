package database

import (
	"context"
	"strings"
	"testing"

	"github.com/Additional-Code/millflow/internal/config"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(config.Database{Driver: "sqlite"}, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := pingContext(context.Background(), db); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := db.DB.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestOpen_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		want   string
	}{
		{name: "unknown driver", driver: "oracle", dsn: "x", want: "unsupported database driver"},
		{name: "empty dsn", driver: "sqlite", dsn: "", want: "empty DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(config.Database{Driver: tt.driver}, tt.dsn)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Open() error = %v, want substring %q", err, tt.want)
			}
		})
	}
}
