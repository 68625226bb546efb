package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/san-kum/talkalot/internal/backend"
	"github.com/san-kum/talkalot/internal/recorder"
)

const (
	RecordingsDir = "recordings"
	SessionFile   = "session.json"

	clipExt = ".wav"
	metaExt = ".json"
)

var (
	ErrNoSession   = errors.New("storage: no saved session")
	ErrClipMissing = errors.New("storage: clip not found")
)

// Store lays out the data directory:
//
//	<base>/session.json
//	<base>/recordings/<id>.wav
//	<base>/recordings/<id>.json
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.recordings(), 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) recordings() string {
	return filepath.Join(s.baseDir, RecordingsDir)
}

// Clip is a recorded artifact plus what is needed to play or plot it later.
type Clip struct {
	recorder.Artifact
	SampleRate int    `json:"sample_rate"`
	Owner      string `json:"owner,omitempty"`
}

// NewArtifactPath reserves a fresh id and the WAV path for it.
func (s *Store) NewArtifactPath() (id, path string, err error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	id = uuid.NewString()
	return id, s.ClipPath(id), nil
}

func (s *Store) ClipPath(id string) string {
	return filepath.Join(s.recordings(), id+clipExt)
}

// SaveClip writes the metadata next to the clip's audio.
func (s *Store) SaveClip(c Clip) error {
	if c.ID == "" {
		return fmt.Errorf("storage: clip has no id")
	}
	if err := s.Init(); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(s.recordings(), c.ID+metaExt))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// ListClips returns saved clips oldest first. Audio files without metadata
// are listed with what can be known from the file name.
func (s *Store) ListClips() ([]Clip, error) {
	entries, err := os.ReadDir(s.recordings())
	if err != nil {
		if os.IsNotExist(err) {
			return []Clip{}, nil
		}
		return nil, err
	}

	clips := make([]Clip, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != clipExt {
			continue
		}
		id := strings.TrimSuffix(name, clipExt)
		c, err := s.LoadClip(id)
		if err != nil {
			continue
		}
		clips = append(clips, *c)
	}

	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].CreatedAt.Before(clips[j].CreatedAt)
	})
	return clips, nil
}

func (s *Store) LoadClip(id string) (*Clip, error) {
	path := s.ClipPath(id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrClipMissing, id)
		}
		return nil, err
	}

	c := Clip{Artifact: recorder.Artifact{ID: id, URI: path, CreatedAt: info.ModTime()}}
	data, err := os.ReadFile(filepath.Join(s.recordings(), id+metaExt))
	switch {
	case os.IsNotExist(err):
		return &c, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("storage: clip %s metadata: %w", id, err)
	}
	c.ID, c.URI = id, path
	return &c, nil
}

// Latest returns the newest clip, or ErrClipMissing when there are none.
func (s *Store) Latest() (*Clip, error) {
	clips, err := s.ListClips()
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, ErrClipMissing
	}
	return &clips[len(clips)-1], nil
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.baseDir, SessionFile)
}

// SaveSession remembers the signed-in user so the next launch skips login.
func (s *Store) SaveSession(u backend.User) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.sessionPath(), data, 0600)
}

func (s *Store) LoadSession() (*backend.User, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var u backend.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("storage: session: %w", err)
	}
	if u.ID == "" {
		return nil, ErrNoSession
	}
	return &u, nil
}

func (s *Store) ClearSession() error {
	err := os.Remove(s.sessionPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
