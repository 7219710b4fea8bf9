package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/motion"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	f, err := OpenFile(path)
	require.NoError(t, err)
	testStore(t, f)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, err := reopened.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0644))
	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	testStore(t, s)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("GEOSTICK_REDIS_ADDR")
	if addr == "" {
		t.Skip("GEOSTICK_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), addr, 0, "geostick-test:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	testStore(t, s)
}

func TestLastKnown(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	lk := NewLastKnown(mem)

	_, err := lk.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	want := motion.LatLon{Lat: 37.422, Lon: -122.0841}
	require.NoError(t, lk.SaveLastKnown(ctx, want))

	raw, err := mem.Get(ctx, KeyLastLatitude)
	require.NoError(t, err)
	assert.Equal(t, "37.422", raw)

	got, err := lk.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLastKnownPartial(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, KeyLastLatitude, "1.5"))

	_, err := NewLastKnown(mem).Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.Set(ctx, KeyLastLongitude, "east"))
	_, err = NewLastKnown(mem).Load(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.PrefsConfig
		wantErr bool
	}{
		{"default file", config.PrefsConfig{}, false},
		{"sqlite", config.PrefsConfig{Backend: "sqlite", Path: "p.db"}, false},
		{"none", config.PrefsConfig{Backend: "none"}, false},
		{"unknown", config.PrefsConfig{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			testStore(t, s)
		})
	}
}
