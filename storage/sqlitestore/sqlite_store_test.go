package sqlitestore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/sqlitestore"
	"github.com/jrsteele09/go-session-client/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	var path string
	storagetest.RunContract(t,
		func(t *testing.T) storage.Store {
			path = filepath.Join(t.TempDir(), "session.db")
			return openStore(t, path)
		},
		func(t *testing.T) storage.Store {
			return openStore(t, path)
		},
	)
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := sqlitestore.Open("")
	require.Error(t, err)
}

func TestSQLiteStore_CloseNil(t *testing.T) {
	var s *sqlitestore.Store
	require.NoError(t, s.Close())
}
