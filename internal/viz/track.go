package viz

import (
	"math"

	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/motion"
)

// Projection maps lat/lon onto canvas sub-pixels, north up, with
// longitude shrunk by the cosine of the mid latitude.
type Projection struct {
	center motion.LatLon
	cosLat float64
	scale  float64
	w, h   int
}

// Fit returns a projection that shows every point on a w by h pixel
// area. minSpan is the smallest extent in degrees, so a single point or
// a short track is not blown up to fill the pane.
func Fit(points []motion.LatLon, w, h int, minSpan float64) Projection {
	p := Projection{cosLat: 1, scale: 1, w: w, h: h}
	if len(points) == 0 {
		return p
	}
	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, pt := range points[1:] {
		minLat = math.Min(minLat, pt.Lat)
		maxLat = math.Max(maxLat, pt.Lat)
		minLon = math.Min(minLon, pt.Lon)
		maxLon = math.Max(maxLon, pt.Lon)
	}
	p.center = motion.LatLon{Lat: (minLat + maxLat) / 2, Lon: (minLon + maxLon) / 2}
	p.cosLat = math.Max(math.Cos(p.center.Lat*math.Pi/180), 1e-6)

	spanY := math.Max(maxLat-minLat, minSpan)
	spanX := math.Max((maxLon-minLon)*p.cosLat, minSpan)
	if spanX <= 0 || spanY <= 0 {
		return p
	}
	p.scale = math.Min(float64(w-1)/spanX, float64(h-1)/spanY)
	return p
}

// Point returns the pixel for ll. Points outside the fitted area land
// off canvas and are clipped by Set.
func (p Projection) Point(ll motion.LatLon) (x, y int) {
	fx, fy := p.PointF(ll)
	return int(math.Round(fx)), int(math.Round(fy))
}

func (p Projection) PointF(ll motion.LatLon) (x, y float64) {
	x = float64(p.w-1)/2 + (ll.Lon-p.center.Lon)*p.cosLat*p.scale
	y = float64(p.h-1)/2 - (ll.Lat-p.center.Lat)*p.scale
	return x, y
}

// DrawTrack draws track as connected segments and marks the latest
// point with a dot.
func DrawTrack(c *Canvas, track []motion.LatLon, minSpan float64) Projection {
	p := Fit(track, c.PixelWidth(), c.PixelHeight(), minSpan)
	if len(track) == 0 {
		return p
	}
	x0, y0 := p.Point(track[0])
	for _, pt := range track[1:] {
		x1, y1 := p.Point(pt)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
	c.FillCircle(x0, y0, 1)
	return p
}

// DrawPad draws the background circle, a center mark and the knob. Pad
// coordinates are scaled so the pad width fills the canvas.
func DrawPad(c *Canvas, pad *joystick.Pad) {
	cfg := pad.Config()
	if cfg.Width <= 0 {
		return
	}
	scale := float64(c.PixelWidth()) / cfg.Width
	px := func(v float64) int { return int(math.Round(v * scale)) }

	center := pad.Center()
	cx, cy := px(center.X), px(center.Y)
	c.DrawCircle(cx, cy, px(pad.BackgroundRadius())-1)
	c.DrawLine(cx-1, cy, cx+1, cy)
	c.DrawLine(cx, cy-1, cx, cy+1)

	knob := pad.Knob()
	c.FillCircle(px(knob.X), px(knob.Y), px(math.Min(cfg.KnobWidth, cfg.KnobHeight)/2))
}
