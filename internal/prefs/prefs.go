// Package prefs persists small string settings, most importantly the last
// known position of a session.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/motion"
)

var ErrNotFound = errors.New("prefs: key not found")

const (
	KeyLastLatitude  = "last_known_latitude"
	KeyLastLongitude = "last_known_longitude"
)

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the store selected by cfg. Relative paths are resolved
// against dataDir.
func Open(ctx context.Context, cfg config.PrefsConfig, dataDir string) (Store, error) {
	path := cfg.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	switch cfg.Backend {
	case "", "file":
		if path == "" {
			path = filepath.Join(dataDir, "prefs.yaml")
		}
		return OpenFile(path)
	case "sqlite":
		if path == "" {
			path = filepath.Join(dataDir, "prefs.db")
		}
		return OpenSQLite(ctx, path)
	case "redis":
		addr := cfg.RedisAddr
		if addr == "" {
			addr = config.DefaultRedisAddr
		}
		return OpenRedis(ctx, addr, cfg.RedisDB, cfg.Namespace)
	case "none":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown prefs backend: %s", cfg.Backend)
	}
}

// LastKnown reads and writes the last known position as two string keys.
type LastKnown struct {
	store Store
}

func NewLastKnown(s Store) *LastKnown {
	return &LastKnown{store: s}
}

func (l *LastKnown) SaveLastKnown(ctx context.Context, p motion.LatLon) error {
	if err := l.store.Set(ctx, KeyLastLatitude, strconv.FormatFloat(p.Lat, 'f', -1, 64)); err != nil {
		return err
	}
	return l.store.Set(ctx, KeyLastLongitude, strconv.FormatFloat(p.Lon, 'f', -1, 64))
}

// Load returns ErrNotFound unless both keys are present.
func (l *LastKnown) Load(ctx context.Context) (motion.LatLon, error) {
	latStr, err := l.store.Get(ctx, KeyLastLatitude)
	if err != nil {
		return motion.LatLon{}, err
	}
	lonStr, err := l.store.Get(ctx, KeyLastLongitude)
	if err != nil {
		return motion.LatLon{}, err
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return motion.LatLon{}, fmt.Errorf("parse %s: %w", KeyLastLatitude, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return motion.LatLon{}, fmt.Errorf("parse %s: %w", KeyLastLongitude, err)
	}
	return motion.LatLon{Lat: lat, Lon: lon}, nil
}
