// Package storage provides newsletter.Store backends.
//
// # SQLite Backend
//
// The SQLite backend keeps one row per publish date, enforced by a UNIQUE
// constraint. Writes use INSERT ... ON CONFLICT(publish_date) DO UPDATE so
// concurrent writers for the same date never create a second row: content
// fields follow the last writer, while id and created_at stay with the first.
//
// Two drivers are supported:
//
//   - "sqlite": modernc.org/sqlite, pure Go, the default
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// Basic usage:
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:        "data/courier.db",
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Memory Backend
//
// MemoryStorage implements the same semantics over a map and is used by
// tests and the "memory" storage backend setting.
package storage
