// Package cache is the on-disk artifact store. Every compiled kernel
// specialization owns one directory named after its cache key; stage
// artifacts and the compilation record live inside it as plain files.
// Entries are immutable: a put replaces the whole file atomically and
// never edits in place.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// EnvDir overrides the cache root when set.
const EnvDir = "TRITON_CACHE_DIR"

// DefaultRoot resolves the cache root directory: $TRITON_CACHE_DIR,
// then $XDG_CACHE_HOME/triton, then ~/.cache/triton.
func DefaultRoot() string {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "triton")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "triton-cache")
	}
	return filepath.Join(home, ".cache", "triton")
}

// Key derives a cache key from an ordered list of parts. Parts are
// length-prefixed before hashing so that ("ab","c") and ("a","bc")
// produce different keys.
func Key(parts ...string) string {
	h := xxhash.New()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(p)
	}
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return hex.EncodeToString(sum[:])
}

// Dir is one cache entry directory. Reads are lock-free; writes take a
// cross-process advisory lock on the directory's lock file so that
// concurrent compiles of the same specialization do not clobber each
// other.
type Dir struct {
	key  string
	path string
}

// Open creates (if needed) and returns the entry directory for key
// under root.
func Open(root, key string) (*Dir, error) {
	path := filepath.Join(root, key)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", path, err)
	}
	return &Dir{key: key, path: path}, nil
}

func (d *Dir) Key() string { return d.key }

// Path returns the absolute path of name inside the entry, whether or
// not it exists yet.
func (d *Dir) Path(name string) string { return filepath.Join(d.path, name) }

// Has reports whether name exists in the entry.
func (d *Dir) Has(name string) bool {
	info, err := os.Stat(d.Path(name))
	return err == nil && !info.IsDir()
}

// Get reads name from the entry.
func (d *Dir) Get(name string) ([]byte, error) {
	return os.ReadFile(d.Path(name))
}

// MTime returns the last-modification time of name in nanoseconds, or
// false when the file does not exist.
func (d *Dir) MTime(name string) (int64, bool) {
	info, err := os.Stat(d.Path(name))
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.ModTime().UnixNano(), true
}

// Put writes data under name: temp file first, then an atomic rename,
// all under the entry's advisory lock. It returns the final path.
func (d *Dir) Put(name string, data []byte) (string, error) {
	lock := flock.New(filepath.Join(d.path, "lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("cache: lock %s: %w", d.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	dst := d.Path(name)
	tmp, err := os.CreateTemp(d.path, name+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("cache: temp for %s: %w", dst, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("cache: write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("cache: close %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("cache: rename %s: %w", dst, err)
	}
	return dst, nil
}

// Clean removes every entry under root. The root directory itself is
// kept.
func Clean(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
