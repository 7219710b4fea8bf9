// Package publish delivers mock fixes to devices and brokers.
package publish

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/san-kum/geostick/internal/motion"
)

const knotsPerMps = 1.943844

// NMEAWriter renders gps fixes as RMC and GGA sentences. Network fixes
// are skipped; an NMEA receiver only ever reports its own position.
type NMEAWriter struct {
	mu   sync.Mutex
	w    io.Writer
	last *motion.GeoSample
}

func NewNMEAWriter(w io.Writer) *NMEAWriter {
	return &NMEAWriter{w: w}
}

func (n *NMEAWriter) Push(_ context.Context, s motion.GeoSample) error {
	if s.Provider != motion.ProviderGPS {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	speed := 0.0
	if n.last != nil {
		if dt := s.Time.Sub(n.last.Time).Seconds(); dt > 0 {
			speed = motion.Distance(n.last.Position(), s.Position()) / dt * knotsPerMps
		}
	}
	n.last = &s

	for _, body := range []string{rmc(s, speed), gga(s)} {
		if _, err := fmt.Fprintf(n.w, "$%s*%s\r\n", body, nmea.Checksum(body)); err != nil {
			return err
		}
	}
	return nil
}

func rmc(s motion.GeoSample, knots float64) string {
	t := s.Time.UTC()
	lat, ns := coord(s.Latitude, 2, "N", "S")
	lon, ew := coord(s.Longitude, 3, "E", "W")
	return fmt.Sprintf("GPRMC,%s,A,%s,%s,%s,%s,%.1f,%.1f,%s,,,A",
		t.Format("150405.00"), lat, ns, lon, ew, knots, s.Bearing, t.Format("020106"))
}

func gga(s motion.GeoSample) string {
	lat, ns := coord(s.Latitude, 2, "N", "S")
	lon, ew := coord(s.Longitude, 3, "E", "W")
	// HDOP is approximated from the reported accuracy.
	hdop := s.Accuracy / 5
	return fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,08,%.1f,0.0,M,0.0,M,,",
		s.Time.UTC().Format("150405.00"), lat, ns, lon, ew, hdop)
}

// coord formats decimal degrees as NMEA (d)ddmm.mmmm with a hemisphere.
func coord(v float64, degWidth int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	minutes := math.Round((v-deg)*60*1e4) / 1e4
	if minutes >= 60 {
		deg++
		minutes = 0
	}
	return fmt.Sprintf("%0*d%07.4f", degWidth, int(deg), minutes), hemi
}

// OpenSerial opens a serial port for NMEA output.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
}
