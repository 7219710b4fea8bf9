package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/viz"
)

const (
	liveCols    = 60
	liveRows    = 14
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the gps track on a plain terminal as ticks
// arrive. It is a motion.Observer for headless drivers such as serve.
type LiveRenderer struct {
	out       io.Writer
	frameRate int
	now       func() time.Time
	lastFrame time.Time

	track  []motion.LatLon
	speeds []float64
	last   motion.GeoSample
	moving bool
	ticks  int
}

func NewLiveRenderer(out io.Writer, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 10
	}
	return &LiveRenderer{
		out:       out,
		frameRate: frameRate,
		now:       time.Now,
		track:     make([]motion.LatLon, 0, trackLen),
	}
}

func (r *LiveRenderer) OnTick(fix motion.GeoSample, moving bool) {
	pos := fix.Position()
	speed := 0.0
	if r.ticks > 0 {
		if dt := fix.Time.Sub(r.last.Time).Seconds(); dt > 0 {
			speed = motion.Distance(r.last.Position(), pos) / dt
		}
	}
	r.track = appendCapped(r.track, pos, trackLen)
	r.speeds = appendCapped(r.speeds, speed, liveCols)
	r.last, r.moving = fix, moving
	r.ticks++

	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now
	r.render()
}

func (r *LiveRenderer) render() {
	c := viz.NewCanvas(liveCols, liveRows)
	viz.DrawTrack(c, r.track, minMapSpan)

	var b strings.Builder
	b.WriteString(clearScreen)
	state := "stationary"
	if r.moving {
		state = "moving"
	}
	b.WriteString(fmt.Sprintf("  %.6f, %.6f  %s  ticks=%d\n", r.last.Latitude, r.last.Longitude, state, r.ticks))
	b.WriteString("  " + strings.Repeat("─", liveCols) + "\n")
	for _, row := range c.Rows() {
		b.WriteString("  " + row + "\n")
	}
	b.WriteString("  " + strings.Repeat("─", liveCols) + "\n")
	b.WriteString(fmt.Sprintf("  bearing=%.0f° accuracy=%.0fm\n", r.last.Bearing, r.last.Accuracy))
	b.WriteString("  " + viz.Sparkline(r.speeds, liveCols) + "\n")

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
