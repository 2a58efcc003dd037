package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/tabula-cli/internal/table"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

const (
	metaExt = ".json"
	rowsExt = ".rows.lz4"
)

// FileStore keeps each dataset as <id>.json metadata beside <id>.rows.lz4,
// an lz4-compressed JSON array of rows. Loaded tables are cached.
type FileStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Dataset
	group singleflight.Group
	now   func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("data directory not set")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &FileStore{dir: dir, cache: map[string]*Dataset{}, now: time.Now}, nil
}

// Dir returns the on-disk data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) metaPath(id string) string { return filepath.Join(s.dir, id+metaExt) }
func (s *FileStore) rowsPath(id string) string { return filepath.Join(s.dir, id+rowsExt) }

// Create writes rows first and metadata last so a listed dataset always has rows.
func (s *FileStore) Create(ctx context.Context, d *Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepare(d, uuid.NewString(), s.now()); err != nil {
		return err
	}
	if err := s.writeRows(d.ID, d.Table.Rows); err != nil {
		return err
	}
	meta, err := utils.PrettyJSON(d)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(s.metaPath(d.ID), meta); err != nil {
		_ = os.Remove(s.rowsPath(d.ID))
		return fmt.Errorf("write metadata: %w", err)
	}
	s.mu.Lock()
	s.cache[d.ID] = d
	s.mu.Unlock()
	return nil
}

// Get returns the dataset with its table, loading it once per id even under
// concurrent callers.
func (s *FileStore) Get(ctx context.Context, id string) (*Dataset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.RLock()
	d, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return d, nil
	}
	v, err, _ := s.group.Do(id, func() (any, error) {
		s.mu.RLock()
		d, ok := s.cache[id]
		s.mu.RUnlock()
		if ok {
			return d, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := s.load(id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[id] = d
		s.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

func (s *FileStore) load(id string) (*Dataset, error) {
	d, err := s.readMeta(s.metaPath(id))
	if err != nil {
		return nil, err
	}
	rows, err := s.readRows(id)
	if err != nil {
		return nil, err
	}
	d.Table = table.Restore(d.Columns, rows, d.RowCount, d.ColumnCount)
	return d, nil
}

// List reads every metadata document in the data directory.
func (s *FileStore) List(ctx context.Context) ([]Dataset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	out := []Dataset{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}
		d, err := s.readMeta(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes metadata and rows as one unit.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.metaPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("remove metadata: %w", err)
	}
	if err := os.Remove(s.rowsPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove rows: %w", err)
	}
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
	s.group.Forget(id)
	return nil
}

func (s *FileStore) readMeta(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), metaExt))
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", filepath.Base(path), err)
	}
	return &d, nil
}

func (s *FileStore) writeRows(id string, rows []table.Row) error {
	path := s.rowsPath(id)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create rows file: %w", err)
	}
	zw := lz4.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(rows); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compress rows: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close rows file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func (s *FileStore) readRows(id string) ([]table.Row, error) {
	f, err := os.Open(s.rowsPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (rows missing)", ErrNotFound, id)
		}
		return nil, fmt.Errorf("open rows: %w", err)
	}
	defer f.Close()
	var rows []table.Row
	if err := json.NewDecoder(lz4.NewReader(f)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}
