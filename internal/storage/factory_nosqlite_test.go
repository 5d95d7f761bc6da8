//go:build !sqlite

package storage

import (
	"errors"
	"testing"
)

func TestNewStoreSQLiteWithoutTag(t *testing.T) {
	store, err := NewStore("sqlite", "runs.db")
	if !errors.Is(err, ErrSQLiteUnavailable) {
		t.Fatalf("expected ErrSQLiteUnavailable, got %v", err)
	}
	if store != nil {
		t.Fatalf("expected nil store, got %T", store)
	}
}
