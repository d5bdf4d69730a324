package database

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"streamnet/internal/config"
)

func TestOpenRepositories_Memory(t *testing.T) {
	repos, closeFn, err := OpenRepositories(context.Background(), &config.Config{Storage: config.StorageMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenRepositories: %v", err)
	}
	defer closeFn()

	if repos.Tx == nil || repos.Users == nil || repos.Friends == nil || repos.Support == nil || repos.Stats == nil {
		t.Errorf("incomplete repository set: %+v", repos)
	}
}

func TestOpenRepositories_UnknownStorage(t *testing.T) {
	if _, _, err := OpenRepositories(context.Background(), &config.Config{Storage: "mongo"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown storage")
	}
}
