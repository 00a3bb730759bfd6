package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"myonorm/internal/emgerr"
)

// Handle refers to one recording of a session without holding its samples.
// Load reads the data on demand and caches it; a Handle may be shared by
// goroutines.
type Handle struct {
	Name string
	Meta Metadata

	load  func() (*Recording, error)
	once  *sync.Once
	cache *loaded
}

type loaded struct {
	rec *Recording
	err error
}

// NewHandle wraps a loader. The loader runs at most once.
func NewHandle(name string, meta Metadata, load func() (*Recording, error)) Handle {
	return Handle{Name: name, Meta: meta, load: load, once: new(sync.Once), cache: new(loaded)}
}

// MemoryHandle exposes an already loaded recording.
func MemoryHandle(rec *Recording) Handle {
	return NewHandle(rec.Name(), rec.Metadata(), func() (*Recording, error) { return rec, nil })
}

// FileHandle parses the metadata of path and defers reading the samples.
func FileHandle(path string, sampleRate float64) (Handle, error) {
	meta, err := ParseFilename(path)
	if err != nil {
		return Handle{}, err
	}
	return NewHandle(filepath.Base(path), meta, func() (*Recording, error) {
		return ReadFile(path, sampleRate)
	}), nil
}

// Load returns the recording, reading it on first use.
func (h Handle) Load() (*Recording, error) {
	if h.load == nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load",
			fmt.Sprintf("%s: handle has no loader", h.Name), nil)
	}
	h.once.Do(func() {
		h.cache.rec, h.cache.err = h.load()
	})
	return h.cache.rec, h.cache.err
}

// Rejected is a session file that could not become a Handle.
type Rejected struct {
	Name string
	Err  error
}

// Session is the input to calibration and aggregation: the channel names
// and the recordings in input order.
type Session struct {
	Dir        string
	SampleRate float64
	Channels   ChannelSet
	Handles    []Handle
	Rejected   []Rejected
}

// NewSession builds a session from handles already in input order.
func NewSession(dir string, sampleRate float64, channels ChannelSet, handles ...Handle) *Session {
	return &Session{Dir: dir, SampleRate: sampleRate, Channels: channels, Handles: handles}
}

// Participant returns the participant type shared by the session's files,
// or "" when there are none.
func (s *Session) Participant() string {
	for _, h := range s.Handles {
		if h.Meta.ParticipantType != "" {
			return h.Meta.ParticipantType
		}
	}
	return ""
}

// DiscoverSession lists .npz and .npy recordings in dir in lexical order.
// Files whose names do not follow the session convention are recorded in
// Rejected instead of failing the whole session.
func DiscoverSession(dir string, sampleRate float64) (*Session, error) {
	channels, err := LoadChannelSet(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read session directory: %w", err)
	}

	session := &Session{Dir: dir, SampleRate: sampleRate, Channels: channels}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ExtNPZ, ExtNPY:
		default:
			continue
		}
		handle, err := FileHandle(filepath.Join(dir, entry.Name()), sampleRate)
		if err != nil {
			session.Rejected = append(session.Rejected, Rejected{Name: entry.Name(), Err: err})
			continue
		}
		session.Handles = append(session.Handles, handle)
	}
	return session, nil
}

// Load returns the recording behind Handles[index] after checking that its
// channel count matches the session's channel set.
func (s *Session) Load(index int) (*Recording, error) {
	if index < 0 || index >= len(s.Handles) {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "recording", "load",
			fmt.Sprintf("recording %d out of range [0, %d)", index, len(s.Handles)), nil)
	}
	h := s.Handles[index]
	rec, err := h.Load()
	if err != nil {
		return nil, err
	}
	if rec.Channels() != len(s.Channels) {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "recording", "load",
			fmt.Sprintf("%s has %d channels, %s lists %d", h.Name, rec.Channels(), ChannelConfigFile, len(s.Channels)), nil)
	}
	if s.SampleRate > 0 && rec.SampleRate() != s.SampleRate {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load",
			fmt.Sprintf("%s sampled at %g Hz, session expects %g Hz", h.Name, rec.SampleRate(), s.SampleRate), nil)
	}
	return rec, nil
}
