// Package storage keeps experiment runs on disk, one directory per run
// holding metadata.json and samples.csv.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/san-kum/geostick/internal/experiment"
	"github.com/san-kum/geostick/internal/motion"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

// Streams recorded in samples.csv.
const (
	StreamGPS     = "gps"
	StreamNetwork = "network"
	StreamCamera  = "camera"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Start     motion.LatLon      `json:"start"`
	Duration  float64            `json:"duration_s"`
	Ticks     int                `json:"ticks"`
	Fixes     int                `json:"fixes"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Sample is one row of samples.csv.
type Sample struct {
	Stream string `json:"stream"`
	motion.GeoSample
}

var csvHeader = []string{"stream", "time", "lat", "lon", "bearing", "accuracy", "jump"}

// Save writes res under a new run id and returns it.
func (s *Store) Save(res *experiment.Result, duration time.Duration) (string, error) {
	runID := fmt.Sprintf("%s_%s", res.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      res.Name,
		Timestamp: time.Now().UTC(),
		Seed:      res.Seed,
		Start:     res.Start,
		Duration:  duration.Seconds(),
		Ticks:     res.Ticks,
		Fixes:     len(res.Fixes),
		Metrics:   res.Metrics,
	}
	data, err := sonic.ConfigStd.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, Samples(res)); err != nil {
		return "", fmt.Errorf("write samples: %w", err)
	}
	return runID, f.Close()
}

// Samples flattens the three streams of res in emission order per stream.
func Samples(res *experiment.Result) []Sample {
	out := make([]Sample, 0, len(res.Fixes)+len(res.Network)+len(res.Camera))
	for _, f := range res.Fixes {
		out = append(out, Sample{Stream: StreamGPS, GeoSample: f})
	}
	for _, f := range res.Network {
		out = append(out, Sample{Stream: StreamNetwork, GeoSample: f})
	}
	for _, f := range res.Camera {
		out = append(out, Sample{Stream: StreamCamera, GeoSample: f})
	}
	return out
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := sonic.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metadataFile, err)
	}
	return &meta, nil
}

// LoadSamples reads samples.csv for runID. Rows that fail to parse are
// skipped.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	out := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		sample, err := parseRow(rec)
		if err != nil {
			continue
		}
		out = append(out, sample)
	}
	return out, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.Stream,
			s.Time.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(s.Latitude, 'f', -1, 64),
			strconv.FormatFloat(s.Longitude, 'f', -1, 64),
			strconv.FormatFloat(s.Bearing, 'f', 3, 64),
			strconv.FormatFloat(s.Accuracy, 'f', -1, 64),
			strconv.FormatBool(s.Jump),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRow(rec []string) (Sample, error) {
	t, err := time.Parse(time.RFC3339Nano, rec[1])
	if err != nil {
		return Sample{}, err
	}
	var nums [4]float64
	for i := range nums {
		if nums[i], err = strconv.ParseFloat(rec[2+i], 64); err != nil {
			return Sample{}, err
		}
	}
	jump, err := strconv.ParseBool(rec[6])
	if err != nil {
		return Sample{}, err
	}
	provider := rec[0]
	if provider == StreamCamera {
		provider = motion.ProviderGPS
	}
	return Sample{
		Stream: rec[0],
		GeoSample: motion.GeoSample{
			Provider:  provider,
			Time:      t,
			Latitude:  nums[0],
			Longitude: nums[1],
			Bearing:   nums[2],
			Accuracy:  nums[3],
			Jump:      jump,
		},
	}, nil
}
