// Package seed resolves the starting position of a session.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/motion"
)

// Source yields a starting position or an error when it has none.
type Source interface {
	Name() string
	Resolve(ctx context.Context) (motion.LatLon, error)
}

// Static always returns the same position.
type Static motion.LatLon

func (s Static) Name() string { return "static" }

func (s Static) Resolve(context.Context) (motion.LatLon, error) {
	return motion.LatLon(s), nil
}

// LastKnownLoader is implemented by prefs.LastKnown.
type LastKnownLoader interface {
	Load(ctx context.Context) (motion.LatLon, error)
}

// Persisted reads the last position saved by a previous session.
type Persisted struct {
	Loader LastKnownLoader
}

func (p Persisted) Name() string { return "last-known" }

func (p Persisted) Resolve(ctx context.Context) (motion.LatLon, error) {
	return p.Loader.Load(ctx)
}

// Resolver tries its sources in order and returns the first valid
// position.
type Resolver struct {
	sources []Source
}

func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

func (r *Resolver) Add(s Source) { r.sources = append(r.sources, s) }

// Resolve returns motion.ErrNoSeed when no source produced a position;
// the individual failures are joined onto it.
func (r *Resolver) Resolve(ctx context.Context) (motion.LatLon, error) {
	errs := []error{motion.ErrNoSeed}
	for _, s := range r.sources {
		pos, err := s.Resolve(ctx)
		if err == nil && !pos.Valid() {
			err = fmt.Errorf("%w: %s", motion.ErrInvalidSeed, pos)
		}
		if err != nil {
			log.Debug().Err(err).Str("source", s.Name()).Msg("seed source unavailable")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		log.Info().Str("source", s.Name()).Float64("lat", pos.Lat).Float64("lon", pos.Lon).Msg("seed resolved")
		return pos, nil
	}
	return motion.LatLon{}, errors.Join(errs...)
}
