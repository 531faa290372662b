package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/NeverVane/keepsake/internal/logger"
	"github.com/NeverVane/keepsake/internal/snippet"
)

var (
	// ErrNoStore reports that the snippet document is absent or holds
	// zero entries. Callers distinguish this from a search that simply
	// matched nothing.
	ErrNoStore = errors.New("no snippets saved")

	// ErrNotFound reports that an exact template key is not in the
	// store.
	ErrNotFound = errors.New("snippet not found")
)

// Store is the persistence contract for snippets. The document is a
// single flat mapping from command template to description; every
// mutation reads it fully, changes it in memory and rewrites it fully.
type Store interface {
	List() ([]snippet.Snippet, error)
	Save(s snippet.Snippet) (updated bool, err error)
	Remove(template string) error
}

// Options configures a FileStore.
type Options struct {
	// Fs is the filesystem holding the document. Defaults to the OS
	// filesystem; tests inject afero.NewMemMapFs().
	Fs afero.Fs

	// Path locates the snippet document.
	Path string

	// LockTimeout bounds how long a mutation waits for the store lock.
	LockTimeout time.Duration
}

// FileStore keeps snippets in one JSON document. Mutations are
// serialized by an exclusive lock file next to the document and
// published by writing a temp file and renaming it into place, so a
// concurrent reader never observes a half-written document.
type FileStore struct {
	fs          afero.Fs
	path        string
	lockTimeout time.Duration
	locking     bool
	logger      *logger.Logger
}

// New creates a FileStore for the given options.
func New(opts Options) *FileStore {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// flock needs a real file descriptor; in-memory filesystems get no
	// cross-process lock because there is no other process to race.
	_, onDisk := fs.(*afero.OsFs)
	return &FileStore{
		fs:          fs,
		path:        opts.Path,
		lockTimeout: timeout,
		locking:     onDisk,
		logger:      logger.GetLogger().WithComponent("store"),
	}
}

// Path returns the location of the snippet document.
func (s *FileStore) Path() string {
	return s.path
}

// List returns every stored snippet sorted by template. ErrNoStore is
// returned when the document is absent or empty.
func (s *FileStore) List() ([]snippet.Snippet, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoStore
	}
	snippets := make([]snippet.Snippet, 0, len(entries))
	for template, desc := range entries {
		snippets = append(snippets, snippet.Snippet{Template: template, Description: desc})
	}
	snippet.SortByTemplate(snippets)
	return snippets, nil
}

// Save upserts the snippet and reports whether an existing entry was
// overwritten. The first save creates the data directory and document.
func (s *FileStore) Save(sn snippet.Snippet) (bool, error) {
	if err := sn.Validate(); err != nil {
		return false, err
	}
	var updated bool
	err := s.withLock(func() error {
		entries, err := s.load()
		if err != nil {
			return err
		}
		if entries == nil {
			entries = make(map[string]string)
		}
		_, updated = entries[sn.Template]
		entries[sn.Template] = sn.Description
		return s.persist(entries)
	})
	if err != nil {
		return false, err
	}
	s.logger.Debug().
		Str("template", sn.Template).
		Bool("updated", updated).
		Msg("Snippet saved")
	return updated, nil
}

// Remove deletes the snippet stored under the exact template key.
// ErrNoStore is returned when there is nothing to remove at all and
// ErrNotFound when the key is absent.
func (s *FileStore) Remove(template string) error {
	err := s.withLock(func() error {
		entries, err := s.load()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrNoStore
		}
		if _, ok := entries[template]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, template)
		}
		delete(entries, template)
		return s.persist(entries)
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Str("template", template).Msg("Snippet removed")
	return nil
}

// load reads the whole document into memory. A missing document yields
// a nil map and no error; malformed JSON is an error.
func (s *FileStore) load() (map[string]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snippet store: %w", err)
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse snippet store %s: %w", s.path, err)
	}
	return entries, nil
}

// persist rewrites the whole document. The write lands in a temp file
// first and is renamed over the document so readers see either the old
// or the new content, never a torn write.
func (s *FileStore) persist(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snippet store: %w", err)
	}
	data = append(data, '\n')

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write snippet store: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("publish snippet store: %w", err)
	}
	return nil
}

func (s *FileStore) withLock(fn func() error) error {
	if !s.locking {
		return fn()
	}
	lock := NewFileLock(s.path+".lock", s.lockTimeout)
	if err := lock.Lock(context.Background()); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
