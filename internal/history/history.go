// Package history keeps the per-project interaction log: one JSONL file per
// session kind under <project>/.devhub/history. Records are only shown to
// the user; nothing is replayed into a live session.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record types.
const (
	TypeStart = "start"
	TypeExit  = "exit"
	TypeInput = "input"
	TypeError = "error"
)

// DefaultMaxBytes is the size at which a log file is rotated.
const DefaultMaxBytes = 1 << 20

// Record is one line of a history file.
type Record struct {
	Time    time.Time `json:"time"`
	RunID   string    `json:"run_id,omitempty"`
	Session string    `json:"session"`
	Type    string    `json:"type"`
	Command string    `json:"command,omitempty"`
	Text    string    `json:"text,omitempty"`
	Code    *int      `json:"code,omitempty"`
	Signal  string    `json:"signal,omitempty"`
}

// Store appends records to the history directory.
type Store struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
}

// Open creates dir if needed. maxBytes <= 0 uses DefaultMaxBytes.
func Open(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// NewRunID returns an identifier for one process run.
func NewRunID() string {
	return uuid.NewString()
}

// Dir returns the history directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(kind string) string {
	return filepath.Join(s.dir, kind+".log")
}

// Append writes rec to the kind's log, rotating it to <kind>.log.1 once it
// exceeds the size limit. A zero Time is set to now.
func (s *Store) Append(kind string, rec Record) error {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(kind)
	if info, err := os.Stat(path); err == nil && info.Size()+int64(len(data)) > s.maxBytes {
		if err := os.Rename(path, path+".1"); err != nil {
			return fmt.Errorf("rotate history: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Recent returns up to n of the newest records of kind, oldest first.
// Malformed lines are skipped.
func (s *Store) Recent(kind string, n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var recs []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
		if n > 0 && len(recs) > 2*n {
			recs = append(recs[:0], recs[len(recs)-n:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

// Summary renders a record as a single display line.
func (r Record) Summary() string {
	ts := r.Time.Local().Format("2006-01-02 15:04")
	switch r.Type {
	case TypeStart:
		return fmt.Sprintf("%s started %s", ts, r.Command)
	case TypeExit:
		switch {
		case r.Signal != "":
			return fmt.Sprintf("%s killed by signal %s", ts, r.Signal)
		case r.Code != nil:
			return fmt.Sprintf("%s finished with code %d", ts, *r.Code)
		default:
			return fmt.Sprintf("%s exited", ts)
		}
	case TypeInput:
		return fmt.Sprintf("%s > %s", ts, r.Text)
	case TypeError:
		return fmt.Sprintf("%s error: %s", ts, r.Text)
	default:
		return fmt.Sprintf("%s %s %s", ts, r.Type, r.Text)
	}
}
