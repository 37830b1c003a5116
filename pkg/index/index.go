package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// EventIndex remembers which calendar event mirrors which task so the
// mirror can skip the extended-property search.
type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// DefaultPath is the index location under the user config directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tasknotes", "events.json"), nil
}

// NewEventIndex loads the index stored at path, or starts an empty one when
// the file does not exist yet. An empty path uses DefaultPath.
func NewEventIndex(path string) (*EventIndex, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	idx := &EventIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.load(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *EventIndex) load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&idx.Mappings); err != nil {
		return err
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[string]string)
	}
	return nil
}

// Save writes the index if it changed since the last save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event id for taskID, or "" when unknown.
func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs returns the ids of all mirrored tasks, sorted.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
