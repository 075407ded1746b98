package world

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MultiArchiver fans each event out to several archive sinks. Later sinks
// still run after a failure; the first error is returned.
type MultiArchiver []Archiver

func (m MultiArchiver) WriteEvent(e *Event) error {
	var firstErr error
	for _, a := range m {
		if err := a.WriteEvent(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ArchiveWriter appends events to daily rotated JSONL files. One file per
// calendar day, named events-YYYY-MM-DD.jsonl.
type ArchiveWriter struct {
	logDir      string
	currentFile *os.File
	currentDate string
	mu          sync.Mutex
}

// NewArchiveWriter creates an event archive rooted at logDir.
func NewArchiveWriter(logDir string) (*ArchiveWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	w := &ArchiveWriter{logDir: logDir}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, fmt.Errorf("failed to initialize archive file: %w", err)
	}
	return w, nil
}

// WriteEvent appends one event as a JSON line, rotating at day boundaries.
func (w *ArchiveWriter) WriteEvent(e *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return fmt.Errorf("failed to rotate archive file: %w", err)
	}

	data, err := e.ToJSON()
	if err != nil {
		return err
	}
	if _, err := w.currentFile.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if _, err := w.currentFile.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.currentFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive file: %w", err)
	}
	return nil
}

func (w *ArchiveWriter) rotateIfNeeded() error {
	newDate := time.Now().Format("2006-01-02")
	if w.currentFile != nil && w.currentDate == newDate {
		return nil
	}

	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			return fmt.Errorf("failed to close archive file: %w", err)
		}
	}

	path := filepath.Join(w.logDir, fmt.Sprintf("events-%s.jsonl", newDate))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open archive file %s: %w", path, err)
	}

	w.currentFile = file
	w.currentDate = newDate
	return nil
}

// CurrentFile returns the path of the active archive file.
func (w *ArchiveWriter) CurrentFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentFile == nil {
		return ""
	}
	return filepath.Join(w.logDir, fmt.Sprintf("events-%s.jsonl", w.currentDate))
}

// Close closes the active archive file.
func (w *ArchiveWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile != nil {
		err := w.currentFile.Close()
		w.currentFile = nil
		if err != nil {
			return fmt.Errorf("failed to close archive file: %w", err)
		}
	}
	return nil
}

// ReadArchive parses all events from an archive file.
func ReadArchive(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := EventFromJSON(line)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}
	return events, nil
}

// ListArchiveFiles returns all archive files under logDir.
func ListArchiveFiles(logDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "events-*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list archive files: %w", err)
	}
	return files, nil
}
