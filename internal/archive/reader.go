// Package archive reads LinkedIn data-export ZIP archives.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// MaxEntryBytes caps how much of a single CSV entry is read. LinkedIn
// exports keep individual files small; anything beyond this is truncated.
const MaxEntryBytes = 32 << 20 // 32 MiB

// Export is an opened data-export archive.
type Export struct {
	reader *zip.Reader
}

// Open parses a ZIP archive held in memory.
func Open(data []byte) (*Export, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("archive: open zip: %w", err)
	}
	return &Export{reader: r}, nil
}

// Entry returns the contents of the named entry as a string. The lookup
// is case-insensitive and also matches on the basename, since some
// exports nest files under a directory. A missing or unreadable entry
// yields an empty string so one absent CSV never fails a whole export.
func (e *Export) Entry(name string) string {
	want := strings.ToLower(name)
	var match *zip.File
	for _, f := range e.reader.File {
		lower := strings.ToLower(f.Name)
		if lower == want {
			match = f
			break
		}
		if match == nil && path.Base(lower) == want {
			match = f
		}
	}
	if match == nil {
		return ""
	}

	rc, err := match.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEntryBytes))
	if err != nil {
		return ""
	}
	return string(data)
}

// Has reports whether the named entry exists in the archive.
func (e *Export) Has(name string) bool {
	want := strings.ToLower(name)
	for _, f := range e.reader.File {
		lower := strings.ToLower(f.Name)
		if lower == want || path.Base(lower) == want {
			return true
		}
	}
	return false
}

// EntryNames lists all file names in the archive.
func (e *Export) EntryNames() []string {
	names := make([]string, 0, len(e.reader.File))
	for _, f := range e.reader.File {
		names = append(names, f.Name)
	}
	return names
}
