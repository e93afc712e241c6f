package persist

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jrhy/statecore/nsmap"
	"github.com/minio/blake2b-simd"
)

// DefaultCacheSize is the number of decoded snapshots kept when
// Config.Cache is nil.
const DefaultCacheSize = 256

// ErrCorrupt means stored bytes do not hash to their name.
var ErrCorrupt = errors.New("snapshot content does not match its name")

// Config controls how snapshots are encoded, stored and cached.
type Config struct {
	// StoreWith is used to store and load encoded snapshots. Required.
	StoreWith Persist

	// Marshal function, defaults to JSON. nsmap.MarshalProto is the
	// binary alternative.
	Marshal func(*nsmap.Map) ([]byte, error)

	// Unmarshal function, defaults to nsmap.Decode. Must match Marshal.
	Unmarshal func([]byte) (*nsmap.Map, error)

	// Cache of decoded snapshots; nil means a new cache of
	// DefaultCacheSize.
	Cache Cache

	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

// Snapshots saves and loads namespace maps through a Persist.
type Snapshots struct {
	persist   Persist
	marshal   func(*nsmap.Map) ([]byte, error)
	unmarshal func([]byte) (*nsmap.Map, error)
	cache     Cache
	log       *slog.Logger
}

// NewSnapshots returns Snapshots configured by cfg.
func NewSnapshots(cfg Config) (*Snapshots, error) {
	if cfg.StoreWith == nil {
		return nil, fmt.Errorf("no persistence mechanism set; set Config.StoreWith")
	}
	s := &Snapshots{
		persist:   cfg.StoreWith,
		marshal:   cfg.Marshal,
		unmarshal: cfg.Unmarshal,
		cache:     cfg.Cache,
		log:       cfg.Logger,
	}
	if s.marshal == nil {
		s.marshal = (*nsmap.Map).MarshalJSON
	}
	if s.unmarshal == nil {
		s.unmarshal = nsmap.Decode
	}
	if s.cache == nil {
		s.cache = NewCache(DefaultCacheSize)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s, nil
}

// Name returns the name encoded would be stored under.
func Name(encoded []byte) string {
	hashBytes := blake2b.Sum256(encoded)
	return base64.RawURLEncoding.EncodeToString(hashBytes[:])
}

// Save stores m and returns its name. Saving a map whose name is
// already cached does not touch the store.
func (s *Snapshots) Save(ctx context.Context, m *nsmap.Map) (string, error) {
	encoded, err := s.marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	name := Name(encoded)
	if s.cache.Contains(name) {
		s.log.Debug("snapshot already stored", "name", name)
		return name, nil
	}
	if err := s.persist.Store(ctx, name, encoded); err != nil {
		return "", fmt.Errorf("persist store %s: %w", name, err)
	}
	s.cache.Add(name, m)
	return name, nil
}

// Load retrieves the map saved under name, checking that the stored
// bytes hash to name.
func (s *Snapshots) Load(ctx context.Context, name string) (*nsmap.Map, error) {
	if v, ok := s.cache.Get(name); ok {
		s.log.Debug("snapshot cache hit", "name", name)
		return v.(*nsmap.Map), nil
	}
	encoded, err := s.persist.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persist load %s: %w", name, err)
	}
	if Name(encoded) != name {
		return nil, fmt.Errorf("load %s: %w", name, ErrCorrupt)
	}
	m, err := s.unmarshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", name, err)
	}
	s.cache.Add(name, m)
	return m, nil
}
