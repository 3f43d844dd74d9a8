package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFileName is the activity log inside the data directory.
const DefaultFileName = "activity.jsonl"

// FileRepository appends events as JSON lines. Unparseable lines are skipped
// on read so a torn write never hides the rest of the log.
type FileRepository struct {
	mu     sync.Mutex
	path   string
	nextID int
	now    func() time.Time
}

func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepository{
		path: filepath.Join(dataDir, DefaultFileName),
		now:  time.Now,
	}
	events, err := r.readAll()
	if err != nil {
		return nil, err
	}
	r.nextID = 1
	for _, e := range events {
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
	}
	return r, nil
}

func (r *FileRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	line, err := json.Marshal(Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: r.now(),
		Metadata:  string(metadataJSON),
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	r.nextID++
	return nil
}

func (r *FileRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.readAll()
	if err != nil {
		return nil, err
	}
	return filterEvents(events, since, eventTypes), nil
}

func (r *FileRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	r.nextID = 1
	return nil
}

func (r *FileRepository) readAll() ([]Event, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := make([]Event, 0)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
