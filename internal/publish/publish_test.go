package publish

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/wire"
)

var at = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func gpsFix(lat, lon float64, ts time.Time) motion.GeoSample {
	return motion.GeoSample{
		Provider:  motion.ProviderGPS,
		Latitude:  lat,
		Longitude: lon,
		Bearing:   45,
		Accuracy:  20,
		Time:      ts,
	}
}

func TestNMEAWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewNMEAWriter(&buf)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"north east", 48.1173, 11.516667},
		{"south west", -33.8568, -151.2153},
		{"near equator", 0.000012, -0.000034},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			require.NoError(t, w.Push(context.Background(), gpsFix(tt.lat, tt.lon, at)))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\r\n")
			require.Len(t, lines, 2)

			s, err := nmea.Parse(lines[0])
			require.NoError(t, err)
			rmc, ok := s.(nmea.RMC)
			require.True(t, ok, "first sentence is %T", s)
			assert.Equal(t, nmea.ValidRMC, rmc.Validity)
			assert.InDelta(t, tt.lat, rmc.Latitude, 2e-6)
			assert.InDelta(t, tt.lon, rmc.Longitude, 2e-6)
			assert.InDelta(t, 45, rmc.Course, 1e-9)
			assert.Equal(t, 14, rmc.Time.Hour)
			assert.Equal(t, 5, rmc.Time.Minute)
			assert.Equal(t, 9, rmc.Date.DD)

			s, err = nmea.Parse(lines[1])
			require.NoError(t, err)
			gga, ok := s.(nmea.GGA)
			require.True(t, ok, "second sentence is %T", s)
			assert.Equal(t, nmea.GPS, gga.FixQuality)
			assert.InDelta(t, tt.lat, gga.Latitude, 2e-6)
			assert.InDelta(t, 4.0, gga.HDOP, 1e-9)
		})
	}
}

func TestNMEAWriterSpeed(t *testing.T) {
	var buf bytes.Buffer
	w := NewNMEAWriter(&buf)
	ctx := context.Background()

	require.NoError(t, w.Push(ctx, gpsFix(0, 0, at)))
	buf.Reset()
	// 0.001 degrees of longitude on the equator in 10 seconds
	require.NoError(t, w.Push(ctx, gpsFix(0, 0.001, at.Add(10*time.Second))))

	s, err := nmea.Parse(strings.Split(buf.String(), "\r\n")[0])
	require.NoError(t, err)
	want := 0.001 * 3.141592653589793 / 180 * motion.EarthRadiusMeters / 10 * knotsPerMps
	assert.InDelta(t, want, s.(nmea.RMC).Speed, 0.05)
}

func TestNMEAWriterSkipsNetwork(t *testing.T) {
	var buf bytes.Buffer
	w := NewNMEAWriter(&buf)
	fix := gpsFix(1, 1, at)
	fix.Provider = motion.ProviderNetwork
	require.NoError(t, w.Push(context.Background(), fix))
	assert.Zero(t, buf.Len())
}

func TestCoordRounding(t *testing.T) {
	s, hemi := coord(9.99999999, 2, "N", "S")
	assert.Equal(t, "1000.0000", s)
	assert.Equal(t, "N", hemi)

	s, hemi = coord(-122.5, 3, "E", "W")
	assert.Equal(t, "12230.0000", s)
	assert.Equal(t, "W", hemi)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	sent []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newToken(c.err)
}

func TestMQTTPush(t *testing.T) {
	client := &fakeClient{}
	m := NewMQTT(client, "geostick/fix", 1)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, gpsFix(10, 20, at)))
	net := gpsFix(10, 20, at)
	net.Provider = motion.ProviderNetwork
	net.Accuracy = 1500
	require.NoError(t, m.Push(ctx, net))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "geostick/fix/gps", client.sent[0].topic)
	assert.Equal(t, "geostick/fix/network", client.sent[1].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	got, err := wire.DecodeFix(client.sent[1].payload)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got.Accuracy)
}

func TestMQTTPushError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	err := NewMQTT(client, "t", 0).Push(context.Background(), gpsFix(0, 0, at))
	assert.EqualError(t, err, "not connected")
}
