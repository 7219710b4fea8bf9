package storage

import (
	"io"

	"github.com/bytedance/sonic"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Samples []Sample    `json:"samples"`
}

// Export loads a stored run with its samples.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Run: *meta, Samples: samples}, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	out, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// Series extracts one value per gps sample, for plotting.
func Series(samples []Sample, value func(Sample) float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Stream != StreamGPS {
			continue
		}
		out = append(out, value(s))
	}
	return out
}
