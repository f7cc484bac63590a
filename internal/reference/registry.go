package reference

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Registry maps three-letter SID prefixes to client display names
type Registry interface {
	Lookup(prefix string) (string, bool)
	Len() int
}

// SIDRegistry is an in-memory Registry
type SIDRegistry struct {
	entries map[string]string
}

// NewSIDRegistry builds a registry from prefix to display name pairs
func NewSIDRegistry(entries map[string]string) *SIDRegistry {
	r := &SIDRegistry{entries: make(map[string]string, len(entries))}
	for prefix, name := range entries {
		r.entries[strings.ToUpper(strings.TrimSpace(prefix))] = strings.TrimSpace(name)
	}
	return r
}

// Lookup returns the display name registered for a prefix
func (r *SIDRegistry) Lookup(prefix string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.entries[strings.ToUpper(strings.TrimSpace(prefix))]
	return name, ok
}

// Len is the number of registered prefixes
func (r *SIDRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// ReadSIDRegistry parses "prefix,display name" records. A first record whose
// prefix column is not three letters is treated as a header.
func ReadSIDRegistry(r io.Reader) (*SIDRegistry, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	entries := make(map[string]string)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse registry line %d: %w", line, err)
		}
		if len(record) < 2 {
			continue
		}
		prefix := strings.ToUpper(strings.TrimSpace(record[0]))
		if !isPrefix(prefix) {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("registry line %d: invalid prefix %q", line, record[0])
		}
		entries[prefix] = strings.TrimSpace(record[1])
	}
	return NewSIDRegistry(entries), nil
}

// LoadSIDRegistry reads the registry file. A missing or unreadable file
// yields an empty registry and one warning.
func LoadSIDRegistry(path string, logger *zap.Logger) *SIDRegistry {
	empty := NewSIDRegistry(nil)
	if path == "" {
		return empty
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warn("SID registry unavailable",
			zap.String("path", path),
			zap.Error(err))
		return empty
	}
	defer file.Close()

	registry, err := ReadSIDRegistry(file)
	if err != nil {
		logger.Warn("SID registry unreadable",
			zap.String("path", path),
			zap.Error(err))
		return empty
	}

	logger.Debug("Loaded SID registry",
		zap.String("path", path),
		zap.Int("entries", registry.Len()))
	return registry
}

func isPrefix(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
