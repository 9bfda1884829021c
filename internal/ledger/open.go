package ledger

import (
	"fmt"
	"strings"
)

// Backend names a ledger storage implementation.
type Backend string

const (
	BackendCSV    Backend = "csv"
	BackendSQLite Backend = "sqlite"
)

// Open opens the ledger for the given backend.
func Open(backend Backend, path string, opts ...Option) (Ledger, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case "", BackendCSV:
		return OpenCSV(path, opts...)
	case BackendSQLite:
		return OpenSQLite(path, opts...)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want csv or sqlite)", backend)
	}
}
