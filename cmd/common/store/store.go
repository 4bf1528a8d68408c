// Package store persists per-video beat settings. Values are kept as the raw
// strings the user typed so they round-trip verbatim.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gigurra/beatseek/cmd/common/config"
)

// Settings are the user inputs for one video.
type Settings struct {
	Tempo  string `json:"tempo"`
	Offset string `json:"offset"`
	Chart  string `json:"chart"`
}

// Store is a set of Settings keyed by video id.
type Store struct {
	path   string
	Videos map[string]Settings `json:"videos"`
}

// Path returns the default store location inside the config directory.
func Path() string {
	return filepath.Join(config.ConfigDir(), "videos.json")
}

// Open reads the store at path. A missing file gives an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, Videos: map[string]Settings{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if s.Videos == nil {
		s.Videos = map[string]Settings{}
	}
	return s, nil
}

// Get returns the settings for id.
func (s *Store) Get(id string) (Settings, bool) {
	v, ok := s.Videos[id]
	return v, ok
}

// Put replaces the settings for id. Call Save to persist.
func (s *Store) Put(id string, v Settings) {
	s.Videos[id] = v
}

// Delete removes id, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	_, ok := s.Videos[id]
	delete(s.Videos, id)
	return ok
}

// IDs returns all video ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.Videos))
	for id := range s.Videos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the store back to disk.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
