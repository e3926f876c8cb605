package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// Config configures the artifact store.
type Config struct {
	// Dir is the storage directory.
	Dir string

	// Prefix is the file name prefix. Default: "newsletter"
	Prefix string

	// Extension is the file extension without the dot. Default: "wav"
	Extension string

	// PublicBase is the URL path prefix audio is served from. Default: "/audio"
	PublicBase string
}

// Descriptor describes one stored audio file.
type Descriptor struct {
	FileName     string    `json:"file_name"`
	PublishDate  string    `json:"publish_date"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// Outcome is the result of a conditional delete.
type Outcome int

const (
	// OutcomeKept means the file was not old enough and was left in place.
	OutcomeKept Outcome = iota
	// OutcomeDeleted means the file was removed.
	OutcomeDeleted
	// OutcomeVanished means the file disappeared before it could be removed.
	OutcomeVanished
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeVanished:
		return "vanished"
	default:
		return "kept"
	}
}

// Store is a filesystem-backed artifact store.
type Store struct {
	dir        string
	prefix     string
	ext        string
	publicBase string
	pattern    *regexp.Regexp
	logger     *slog.Logger
}

// NewStore creates a store rooted at cfg.Dir. It does not touch the
// filesystem; call EnsureStorageRoot before writing.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("artifact directory is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "newsletter"
	}
	if cfg.Extension == "" {
		cfg.Extension = "wav"
	}
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")
	if cfg.PublicBase == "" {
		cfg.PublicBase = "/audio"
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.Prefix) + `-(\d{4}-\d{2}-\d{2})\.` + regexp.QuoteMeta(cfg.Extension) + `$`)

	return &Store{
		dir:        cfg.Dir,
		prefix:     cfg.Prefix,
		ext:        cfg.Extension,
		publicBase: "/" + strings.Trim(cfg.PublicBase, "/"),
		pattern:    pattern,
		logger:     slog.Default().With("component", "artifact.store"),
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// PublicBase returns the URL path prefix files are served under.
func (s *Store) PublicBase() string {
	return s.publicBase
}

// EnsureStorageRoot creates the storage directory tree if needed.
func (s *Store) EnsureStorageRoot() error {
	if err := os.MkdirAll(s.dir, dirPermissions); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", s.dir, err)
	}
	return nil
}

// FileNameFor returns the file name for date.
func (s *Store) FileNameFor(date string) string {
	return fmt.Sprintf("%s-%s.%s", s.prefix, date, s.ext)
}

// PathFor returns the absolute-or-relative file path for date.
func (s *Store) PathFor(date string) string {
	return filepath.Join(s.dir, s.FileNameFor(date))
}

// PublicURL returns the URL path clients fetch the audio for date from.
func (s *Store) PublicURL(date string) string {
	return path.Join(s.publicBase, s.FileNameFor(date))
}

// DateFromFileName extracts the publish date from a managed file name.
func (s *Store) DateFromFileName(name string) (string, bool) {
	m := s.pattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Owns reports whether name is a file name this store manages.
func (s *Store) Owns(name string) bool {
	return s.pattern.MatchString(name)
}

// List returns every managed file in the directory, oldest date first.
// A missing directory yields an empty list.
func (s *Store) List(ctx context.Context) ([]Descriptor, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifact directory %s: %w", s.dir, err)
	}

	descs := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		date, ok := s.DateFromFileName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		descs = append(descs, Descriptor{
			FileName:     entry.Name(),
			PublishDate:  date,
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().UTC(),
		})
	}

	sort.Slice(descs, func(i, j int) bool { return descs[i].PublishDate < descs[j].PublishDate })
	return descs, nil
}

// DeleteIfOlderThan removes the file described by desc when its last
// modification is strictly before cutoff. The age is re-read from disk so a
// file rewritten since listing is kept.
func (s *Store) DeleteIfOlderThan(desc Descriptor, cutoff time.Time) (Outcome, error) {
	if !s.Owns(desc.FileName) {
		return OutcomeKept, fmt.Errorf("refusing to delete unmanaged file %q", desc.FileName)
	}
	if !desc.LastModified.Before(cutoff) {
		return OutcomeKept, nil
	}

	p := filepath.Join(s.dir, desc.FileName)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return OutcomeVanished, nil
	}
	if err != nil {
		return OutcomeKept, fmt.Errorf("stat %s: %w", desc.FileName, err)
	}
	if !info.ModTime().Before(cutoff) {
		return OutcomeKept, nil
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return OutcomeVanished, nil
		}
		return OutcomeKept, fmt.Errorf("remove %s: %w", desc.FileName, err)
	}

	s.logger.Debug("artifact deleted", "file", desc.FileName, "size_bytes", desc.SizeBytes)
	return OutcomeDeleted, nil
}

// Write stores data as the file for date, replacing any existing file.
func (s *Store) Write(ctx context.Context, date string, data []byte) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	if err := s.EnsureStorageRoot(); err != nil {
		return Descriptor{}, err
	}

	name := s.FileNameFor(date)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return Descriptor{}, fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Descriptor{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Descriptor{}, fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Descriptor{}, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return Descriptor{}, fmt.Errorf("chmod %s: %w", name, err)
	}

	final := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		return Descriptor{}, fmt.Errorf("rename %s: %w", name, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return Descriptor{}, fmt.Errorf("stat %s: %w", name, err)
	}

	s.logger.Info("artifact written", "file", name, "size_bytes", info.Size())
	return Descriptor{
		FileName:     name,
		PublishDate:  date,
		SizeBytes:    info.Size(),
		LastModified: info.ModTime().UTC(),
	}, nil
}

// Remove deletes the file for date. A missing file is not an error.
func (s *Store) Remove(date string) error {
	err := os.Remove(s.PathFor(date))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.FileNameFor(date), err)
	}
	return nil
}

// Exists reports whether the file for date is present.
func (s *Store) Exists(date string) bool {
	info, err := os.Stat(s.PathFor(date))
	return err == nil && info.Mode().IsRegular()
}
