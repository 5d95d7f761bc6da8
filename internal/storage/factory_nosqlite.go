//go:build !sqlite

package storage

import (
	"errors"
	"fmt"
)

// ErrSQLiteUnavailable is returned by NewStore for the sqlite kind when the
// binary was built without the sqlite tag.
var ErrSQLiteUnavailable = errors.New("sqlite store not compiled in; build with -tags sqlite")

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("open sqlite store %q: %w", path, ErrSQLiteUnavailable)
}
