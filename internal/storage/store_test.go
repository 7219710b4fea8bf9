package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/geostick/internal/experiment"
	"github.com/san-kum/geostick/internal/motion"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() *experiment.Result {
	fix := func(provider string, lat float64, at time.Duration, acc float64) motion.GeoSample {
		return motion.GeoSample{
			Provider:  provider,
			Latitude:  lat,
			Longitude: 13.405,
			Bearing:   0,
			Accuracy:  acc,
			Time:      epoch.Add(at),
		}
	}
	camera := fix(motion.ProviderGPS, 52.520015, 250*time.Millisecond, 20)
	camera.Jump = true
	return &experiment.Result{
		Name:    "walk-east",
		Seed:    42,
		Start:   motion.LatLon{Lat: 52.52, Lon: 13.405},
		Fixes:   []motion.GeoSample{fix(motion.ProviderGPS, 52.52, 0, 20), fix(motion.ProviderGPS, 52.520015, 250*time.Millisecond, 20)},
		Network: []motion.GeoSample{fix(motion.ProviderNetwork, 52.52, 0, 1500)},
		Camera:  []motion.GeoSample{camera},
		Metrics: map[string]float64{"distance_m": 1.67},
		Ticks:   2,
	}
}

func TestSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(sampleResult(), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "walk-east_"))

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "walk-east", meta.Name)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 30.0, meta.Duration)
	assert.Equal(t, 2, meta.Fixes)
	assert.Equal(t, motion.LatLon{Lat: 52.52, Lon: 13.405}, meta.Start)
	assert.InDelta(t, 1.67, meta.Metrics["distance_m"], 1e-12)

	samples, err := st.LoadSamples(runID)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, StreamGPS, samples[0].Stream)
	assert.True(t, samples[1].Time.Equal(epoch.Add(250*time.Millisecond)))
	assert.Equal(t, 52.520015, samples[1].Latitude)
	assert.Equal(t, StreamNetwork, samples[2].Stream)
	assert.Equal(t, 1500.0, samples[2].Accuracy)

	cam := samples[3]
	assert.Equal(t, StreamCamera, cam.Stream)
	assert.Equal(t, motion.ProviderGPS, cam.Provider)
	assert.True(t, cam.Jump)
}

func TestListSortsAndSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.Save(sampleResult(), time.Second)
	require.NoError(t, err)
	second, err := st.Save(sampleResult(), time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "not-a-run"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.False(t, runs[1].Timestamp.Before(runs[0].Timestamp))
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = st.LoadSamples("ghost")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(sampleResult(), time.Second)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, runID, "metadata.json"))
	data, err := os.ReadFile(filepath.Join(dir, runID, "samples.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "stream,time,lat,lon,bearing,accuracy,jump", lines[0])
	assert.Len(t, lines, 5)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(sampleResult(), time.Second)
	require.NoError(t, err)

	data, err := st.Export(runID)
	require.NoError(t, err)
	assert.Len(t, data.Samples, 4)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, data))
	out := buf.String()
	assert.Contains(t, out, `"name": "walk-east"`)
	assert.Contains(t, out, `"stream": "camera"`)
	assert.Contains(t, out, `"jump": true`)
}

func TestSeriesKeepsGPSOnly(t *testing.T) {
	lat := Series(Samples(sampleResult()), func(s Sample) float64 { return s.Latitude })
	assert.Equal(t, []float64{52.52, 52.520015}, lat)
}
