package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// JSONL export and import of table contents. Each line is one JSON object
// mapping column names to values; BLOB values are base64 strings and NULL
// is null.

// ExportJSONL selects the records of d matching cond and writes them to path,
// replacing the file atomically. It returns the number of records written.
func ExportJSONL(s types.Store, d types.Descriptor, cond types.Condition, path string) (int, error) {
	records := <-SelectAsync(s, d, cond)
	if records == nil {
		return 0, fmt.Errorf("export %s: %w", d.Name(), types.ErrNotRegistered)
	}

	lines := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		obj := make(map[string]any)
		for _, p := range rec.Properties() {
			obj[p.Key()] = p.Value()
		}
		line, err := json.Marshal(obj)
		if err != nil {
			return 0, fmt.Errorf("encode %s record: %w", d.Name(), err)
		}
		lines = append(lines, line)
	}

	if err := writeJSONL(path, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// ImportJSONL inserts one record per line of path. decode converts a line
// into a record; lines that are malformed or fail to decode are skipped.
// Inserts are submitted together and awaited; failed inserts count as skipped.
func ImportJSONL(s types.Store, path string, decode func(json.RawMessage) (types.Record, error)) (imported, skipped int, err error) {
	lines, skipped, err := readJSONL(path)
	if err != nil {
		return 0, 0, err
	}

	pending := make([]<-chan bool, 0, len(lines))
	for _, line := range lines {
		rec, err := decode(line)
		if err != nil || rec == nil {
			skipped++
			continue
		}
		pending = append(pending, InsertAsync(s, rec))
	}
	for _, ch := range pending {
		if <-ch {
			imported++
		} else {
			skipped++
		}
	}
	return imported, skipped, nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage, with the number of malformed lines skipped.
func readJSONL(path string) ([]json.RawMessage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		records   []json.RawMessage
		malformed int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			malformed++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, malformed, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
