package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/courier/pkg/newsletter"
)

const (
	// DriverModernc selects the pure-Go modernc.org/sqlite driver.
	DriverModernc = "sqlite"

	// DriverCGO selects the cgo-based mattn/go-sqlite3 driver.
	DriverCGO = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" opens a private
	// in-memory database.
	Path string

	// Driver is the database/sql driver name: "sqlite" (modernc, default)
	// or "sqlite3" (mattn, requires cgo).
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/courier.db",
		Driver:       DriverModernc,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements newsletter.Store using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStorage opens the database, applies the schema and verifies the
// schema version.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 4
	}

	logger := slog.Default().With("component", "newsletter.storage.sqlite")

	dsn, err := buildDSN(config)
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "open", err)
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "open", err)
	}

	// Every connection to ":memory:" is a separate database.
	if config.Path == ":memory:" {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// buildDSN encodes connection pragmas in the form each driver understands,
// so every pooled connection gets them.
func buildDSN(config *SQLiteConfig) (string, error) {
	busyMs := config.BusyTimeout.Milliseconds()
	var params []string

	switch config.Driver {
	case DriverModernc:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyMs))
		if config.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
		params = append(params, "_pragma=synchronous(NORMAL)")
	case DriverCGO:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busyMs))
		if config.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
		params = append(params, "_synchronous=NORMAL")
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (valid: sqlite, sqlite3)", config.Driver)
	}

	if config.Path == ":memory:" {
		return "file::memory:?" + strings.Join(params, "&"), nil
	}
	return "file:" + config.Path + "?" + strings.Join(params, "&"), nil
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return newsletter.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return newsletter.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return newsletter.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return newsletter.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Upsert inserts or overwrites the record for record.PublishDate.
func (s *SQLiteStorage) Upsert(ctx context.Context, record *newsletter.Record) (*newsletter.Record, error) {
	if record == nil {
		return nil, &newsletter.ValidationError{Field: "record", Message: "must not be nil"}
	}
	if err := newsletter.ValidateDate(record.PublishDate); err != nil {
		return nil, err
	}
	if !record.Status.Valid() {
		return nil, &newsletter.ValidationError{Field: "status", Value: string(record.Status), Message: "unknown status"}
	}

	sections, err := json.Marshal(nonNilSections(record.Sections))
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "upsert", err)
	}
	sources, err := json.Marshal(nonNilSources(record.Sources))
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "upsert", err)
	}

	now := s.now().UTC().UnixMicro()
	row := s.db.QueryRowContext(ctx, upsertRecord,
		uuid.New().String(), record.PublishDate,
		record.Title, record.Hook, string(sections), record.Conclusion, string(sources),
		nullString(record.AudioURL), nullInt(record.AudioDurationSeconds),
		string(record.Status), nullString(record.ErrorMessage),
		now, now,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "upsert", err)
	}

	s.logger.Debug("newsletter upserted",
		"publish_date", stored.PublishDate,
		"status", stored.Status,
	)
	return stored, nil
}

// UpdateStatus changes only status and error message for date.
func (s *SQLiteStorage) UpdateStatus(ctx context.Context, date string, status newsletter.Status, errorMessage *string) (*newsletter.Record, error) {
	if err := newsletter.ValidateDate(date); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &newsletter.ValidationError{Field: "status", Value: string(status), Message: "unknown status"}
	}

	now := s.now().UTC().UnixMicro()
	row := s.db.QueryRowContext(ctx, updateStatus,
		uuid.New().String(), date, string(status), nullString(errorMessage), now, now,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", "update_status", err)
	}
	return stored, nil
}

// GetByDate returns the record for date.
func (s *SQLiteStorage) GetByDate(ctx context.Context, date string) (*newsletter.Record, error) {
	return s.queryOne(ctx, "get_by_date", selectByDate, date)
}

// GetLatestComplete returns the most recently updated complete record.
func (s *SQLiteStorage) GetLatestComplete(ctx context.Context) (*newsletter.Record, error) {
	return s.queryOne(ctx, "get_latest_complete", selectLatestComplete)
}

// GetHistory returns up to limit complete records, newest first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, limit int) ([]*newsletter.Record, error) {
	if limit <= 0 {
		return []*newsletter.Record{}, nil
	}
	return s.queryMany(ctx, "get_history", selectHistory, limit)
}

// GetAll returns every record, newest first.
func (s *SQLiteStorage) GetAll(ctx context.Context) ([]*newsletter.Record, error) {
	return s.queryMany(ctx, "get_all", selectAll)
}

// GetOlderThan returns records dated strictly before cutoff, oldest first.
func (s *SQLiteStorage) GetOlderThan(ctx context.Context, cutoff string) ([]*newsletter.Record, error) {
	return s.queryMany(ctx, "get_older_than", selectOlderThan, cutoff)
}

// DeleteOlderThan removes records dated strictly before cutoff.
func (s *SQLiteStorage) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	result, err := s.db.ExecContext(ctx, deleteOlderThan, cutoff)
	if err != nil {
		return 0, newsletter.NewStorageError("sqlite", "delete_older_than", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, newsletter.NewStorageError("sqlite", "delete_older_than", err)
	}
	return count, nil
}

// DeleteByDate removes the record for date.
func (s *SQLiteStorage) DeleteByDate(ctx context.Context, date string) error {
	return s.deleteOne(ctx, "delete_by_date", deleteByDate, date)
}

// DeleteByID removes the record with the given identifier.
func (s *SQLiteStorage) DeleteByID(ctx context.Context, id string) error {
	return s.deleteOne(ctx, "delete_by_id", deleteByID, id)
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return newsletter.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return newsletter.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) queryOne(ctx context.Context, op, query string, args ...any) (*newsletter.Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newsletter.ErrNotFound
	}
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", op, err)
	}
	return record, nil
}

func (s *SQLiteStorage) queryMany(ctx context.Context, op, query string, args ...any) ([]*newsletter.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newsletter.NewStorageError("sqlite", op, err)
	}
	defer rows.Close()

	records := []*newsletter.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, newsletter.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, newsletter.NewStorageError("sqlite", op, err)
	}
	return records, nil
}

func (s *SQLiteStorage) deleteOne(ctx context.Context, op, query, arg string) error {
	result, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return newsletter.NewStorageError("sqlite", op, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return newsletter.NewStorageError("sqlite", op, err)
	}
	if count == 0 {
		return newsletter.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*newsletter.Record, error) {
	var (
		record       newsletter.Record
		sections     string
		sources      string
		audioURL     sql.NullString
		audioSeconds sql.NullInt64
		status       string
		errorMessage sql.NullString
		createdAt    int64
		updatedAt    int64
	)

	err := row.Scan(
		&record.ID, &record.PublishDate,
		&record.Title, &record.Hook, &sections, &record.Conclusion, &sources,
		&audioURL, &audioSeconds, &status, &errorMessage,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sections), &record.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &record.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	record.Sections = nonNilSections(record.Sections)
	record.Sources = nonNilSources(record.Sources)

	if audioURL.Valid {
		v := audioURL.String
		record.AudioURL = &v
	}
	if audioSeconds.Valid {
		v := int(audioSeconds.Int64)
		record.AudioDurationSeconds = &v
	}
	if errorMessage.Valid {
		v := errorMessage.String
		record.ErrorMessage = &v
	}
	record.Status = newsletter.Status(status)
	record.CreatedAt = time.UnixMicro(createdAt).UTC()
	record.UpdatedAt = time.UnixMicro(updatedAt).UTC()

	return &record, nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nonNilSections(v []newsletter.Section) []newsletter.Section {
	if v == nil {
		return []newsletter.Section{}
	}
	return v
}

func nonNilSources(v []newsletter.Source) []newsletter.Source {
	if v == nil {
		return []newsletter.Source{}
	}
	return v
}
