package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/courier/pkg/newsletter"
)

var errStorageClosed = errors.New("storage is closed")

// MemoryStorage implements newsletter.Store using an in-memory map keyed by
// publish date. Intended for tests and single-process development.
type MemoryStorage struct {
	records map[string]*newsletter.Record
	mu      sync.RWMutex
	closed  bool
	now     func() time.Time
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*newsletter.Record),
		now:     time.Now,
	}
}

// Upsert inserts or overwrites the record for record.PublishDate.
func (s *MemoryStorage) Upsert(ctx context.Context, record *newsletter.Record) (*newsletter.Record, error) {
	if record == nil {
		return nil, &newsletter.ValidationError{Field: "record", Message: "must not be nil"}
	}
	if err := newsletter.ValidateDate(record.PublishDate); err != nil {
		return nil, err
	}
	if !record.Status.Valid() {
		return nil, &newsletter.ValidationError{Field: "status", Value: string(record.Status), Message: "unknown status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, newsletter.NewStorageError("memory", "upsert", errStorageClosed)
	}

	next := record.Clone()
	next.Sections = nonNilSections(next.Sections)
	next.Sources = nonNilSources(next.Sources)
	s.stamp(next)
	s.records[next.PublishDate] = next

	return next.Clone(), nil
}

// UpdateStatus changes only status and error message for date.
func (s *MemoryStorage) UpdateStatus(ctx context.Context, date string, status newsletter.Status, errorMessage *string) (*newsletter.Record, error) {
	if err := newsletter.ValidateDate(date); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &newsletter.ValidationError{Field: "status", Value: string(status), Message: "unknown status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, newsletter.NewStorageError("memory", "update_status", errStorageClosed)
	}

	next := &newsletter.Record{
		PublishDate: date,
		Sections:    []newsletter.Section{},
		Sources:     []newsletter.Source{},
	}
	if existing, ok := s.records[date]; ok {
		next = existing.Clone()
	}
	next.Status = status
	next.ErrorMessage = nil
	if errorMessage != nil {
		v := *errorMessage
		next.ErrorMessage = &v
	}
	s.stamp(next)
	s.records[date] = next

	return next.Clone(), nil
}

// stamp assigns identity on first insert and advances UpdatedAt. Callers
// hold s.mu.
func (s *MemoryStorage) stamp(next *newsletter.Record) {
	now := s.now().UTC().Truncate(time.Microsecond)
	if existing, ok := s.records[next.PublishDate]; ok {
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
		if !now.After(existing.UpdatedAt) {
			now = existing.UpdatedAt.Add(time.Microsecond)
		}
	} else {
		next.ID = uuid.New().String()
		next.CreatedAt = now
	}
	next.UpdatedAt = now
}

// GetByDate returns the record for date.
func (s *MemoryStorage) GetByDate(ctx context.Context, date string) (*newsletter.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[date]
	if !ok {
		return nil, newsletter.ErrNotFound
	}
	return record.Clone(), nil
}

// GetLatestComplete returns the most recently updated complete record.
func (s *MemoryStorage) GetLatestComplete(ctx context.Context) (*newsletter.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *newsletter.Record
	for _, record := range s.records {
		if record.Status != newsletter.StatusComplete {
			continue
		}
		if latest == nil || record.UpdatedAt.After(latest.UpdatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, newsletter.ErrNotFound
	}
	return latest.Clone(), nil
}

// GetHistory returns up to limit complete records, newest first.
func (s *MemoryStorage) GetHistory(ctx context.Context, limit int) ([]*newsletter.Record, error) {
	if limit <= 0 {
		return []*newsletter.Record{}, nil
	}
	records := s.collect(func(r *newsletter.Record) bool {
		return r.Status == newsletter.StatusComplete
	}, false)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetAll returns every record, newest first.
func (s *MemoryStorage) GetAll(ctx context.Context) ([]*newsletter.Record, error) {
	return s.collect(func(*newsletter.Record) bool { return true }, false), nil
}

// GetOlderThan returns records dated strictly before cutoff, oldest first.
func (s *MemoryStorage) GetOlderThan(ctx context.Context, cutoff string) ([]*newsletter.Record, error) {
	return s.collect(olderThan(cutoff), true), nil
}

// DeleteOlderThan removes records dated strictly before cutoff.
func (s *MemoryStorage) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, newsletter.NewStorageError("memory", "delete_older_than", errStorageClosed)
	}

	match := olderThan(cutoff)
	var count int64
	for date, record := range s.records {
		if match(record) {
			delete(s.records, date)
			count++
		}
	}
	return count, nil
}

// DeleteByDate removes the record for date.
func (s *MemoryStorage) DeleteByDate(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newsletter.NewStorageError("memory", "delete_by_date", errStorageClosed)
	}

	if _, ok := s.records[date]; !ok {
		return newsletter.ErrNotFound
	}
	delete(s.records, date)
	return nil
}

// DeleteByID removes the record with the given identifier.
func (s *MemoryStorage) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newsletter.NewStorageError("memory", "delete_by_id", errStorageClosed)
	}

	for date, record := range s.records {
		if record.ID == id {
			delete(s.records, date)
			return nil
		}
	}
	return newsletter.ErrNotFound
}

// Ping reports whether the store is still open.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return newsletter.NewStorageError("memory", "ping", errStorageClosed)
	}
	return nil
}

// Close marks the store closed. Reads keep working; writes fail.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStorage) collect(match func(*newsletter.Record) bool, ascending bool) []*newsletter.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []*newsletter.Record{}
	for _, record := range s.records {
		if match(record) {
			records = append(records, record.Clone())
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if ascending {
			return records[i].PublishDate < records[j].PublishDate
		}
		return records[i].PublishDate > records[j].PublishDate
	})
	return records
}

// olderThan mirrors the SQL predicate publish_date < cutoff.
func olderThan(cutoff string) func(*newsletter.Record) bool {
	return func(r *newsletter.Record) bool {
		return r.PublishDate < cutoff
	}
}
