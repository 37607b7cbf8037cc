package querycache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
)

const fileEntryExt = ".entry"

var (
	fileEntryMagic = []byte("QCF1")

	ErrCorruptFileEntry = errors.New("querycache: corrupt file entry")
)

// fileStore writes one file per key, named by the key's SHA-256, so keys of
// any shape are safe on disk. Writes go through a temp file and rename.
type fileStore struct {
	dir string
	err error
}

func newFileStore(dir string) Store {
	if dir == "" {
		dir = defaultFileDir()
	}
	s := &fileStore{dir: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.err = errors.Wrapf(err, "create cache dir %s", dir)
	}
	return s
}

func (s *fileStore) Driver() Driver {
	return DriverFile
}

// Ping reports whether the cache directory could be created.
func (s *fileStore) Ping(context.Context) error {
	return s.err
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !bytes.HasPrefix(data, fileEntryMagic) {
		_ = os.Remove(path)
		return nil, false, errors.Wrapf(ErrCorruptFileEntry, "%s", filepath.Base(path))
	}
	return data[len(fileEntryMagic):], true, nil
}

func (s *fileStore) Set(_ context.Context, key string, value []byte) error {
	tmp, err := createTempFile(s.dir, "entry-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(fileEntryMagic); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := renameFile(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) Flush(_ context.Context) error {
	names, err := s.entries()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *fileStore) Len(_ context.Context) (int, error) {
	names, err := s.entries()
	return len(names), err
}

func (s *fileStore) entries() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileEntryExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (s *fileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+fileEntryExt)
}
