package repository

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// IndexFile lists conversation pair keys ("A-B"), one per line.
type IndexFile struct {
	path string
}

func NewIndexFile(path string) *IndexFile {
	return &IndexFile{path: path}
}

func (f *IndexFile) Path() string { return f.path }

func (f *IndexFile) Load() ([]string, error) {
	file, err := openIfExists(f.path)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	var keys []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		key := strings.TrimSpace(sc.Text())
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return keys, nil
}

func (f *IndexFile) Save(keys []string) error {
	return writeAtomic(f.path, func(w io.Writer) error {
		for _, k := range keys {
			if _, err := io.WriteString(w, k+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// PairKey joins two account names into a conversation key.
func PairKey(a, b string) string {
	return a + "-" + b
}

// SplitPairKey is the inverse of PairKey.
func SplitPairKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, "-")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}
