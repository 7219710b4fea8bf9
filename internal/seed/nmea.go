package seed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/san-kum/geostick/internal/motion"
)

// ErrNoFix is returned when an NMEA stream ended or timed out without a
// valid position.
var ErrNoFix = errors.New("seed: no valid NMEA fix")

// NMEA takes the first valid RMC or GGA fix from a sentence stream, such
// as a GPS receiver on a serial port or a recorded log.
type NMEA struct {
	name string
	open func() (io.ReadCloser, error)
	wait time.Duration
}

func NewNMEA(name string, open func() (io.ReadCloser, error), wait time.Duration) *NMEA {
	return &NMEA{name: name, open: open, wait: wait}
}

// NMEAFile reads a recorded sentence log.
func NMEAFile(path string, wait time.Duration) *NMEA {
	return NewNMEA("nmea-file", func() (io.ReadCloser, error) { return os.Open(path) }, wait)
}

// NMEASerial reads from a GPS receiver.
func NMEASerial(port string, baud uint, wait time.Duration) *NMEA {
	return NewNMEA("nmea-serial", func() (io.ReadCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:        port,
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		})
	}, wait)
}

func (n *NMEA) Name() string { return n.name }

func (n *NMEA) Resolve(ctx context.Context) (motion.LatLon, error) {
	rc, err := n.open()
	if err != nil {
		return motion.LatLon{}, err
	}

	if n.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.wait)
		defer cancel()
	}

	type result struct {
		pos motion.LatLon
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := FirstFix(rc)
		done <- result{pos, err}
	}()

	select {
	case r := <-done:
		rc.Close()
		return r.pos, r.err
	case <-ctx.Done():
		// Closing unblocks the reader goroutine.
		rc.Close()
		return motion.LatLon{}, fmt.Errorf("%w: %v", ErrNoFix, ctx.Err())
	}
}

// FirstFix scans r line by line and returns the first valid position.
// Lines that do not parse are skipped.
func FirstFix(r io.Reader) (motion.LatLon, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		s, err := nmea.Parse(line)
		if err != nil {
			continue
		}
		if pos, ok := fixOf(s); ok {
			return pos, nil
		}
	}
	if err := sc.Err(); err != nil {
		return motion.LatLon{}, err
	}
	return motion.LatLon{}, ErrNoFix
}

func fixOf(s nmea.Sentence) (motion.LatLon, bool) {
	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			return motion.LatLon{}, false
		}
		return motion.LatLon{Lat: m.Latitude, Lon: m.Longitude}, true
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			return motion.LatLon{}, false
		}
		return motion.LatLon{Lat: m.Latitude, Lon: m.Longitude}, true
	}
	return motion.LatLon{}, false
}
