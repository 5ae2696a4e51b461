package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vsinha/packplan/pkg/infrastructure/config"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, closeFn, err := Open(ctx, config.DatabaseConfig{Driver: "memory"}, nil)
	if err != nil {
		t.Fatalf("Failed to open memory store: %v", err)
	}
	closeFn()
	if _, ok := repo.(*memory.SubmissionRepository); !ok {
		t.Errorf("Expected memory store, got %T", repo)
	}

	repo, closeFn, err = Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "p.db")}, nil)
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	defer closeFn()
	if _, ok := repo.(*sqlite.SubmissionRepository); !ok {
		t.Errorf("Expected sqlite store, got %T", repo)
	}

	if _, _, err := Open(ctx, config.DatabaseConfig{Driver: "oracle"}, nil); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
