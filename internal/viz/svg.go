package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/geostick/internal/motion"
)

// WriteTrackSVG renders track as an SVG path, north up, with a tenth of
// each side left as margin. The start is marked with a ring and the end
// with a dot.
func WriteTrackSVG(w io.Writer, track []motion.LatLon, width, height int, stroke string) error {
	if len(track) < 2 {
		return fmt.Errorf("track needs at least 2 points, got %d", len(track))
	}
	marginX, marginY := float64(width)*0.1, float64(height)*0.1
	p := Fit(track, int(float64(width)*0.8), int(float64(height)*0.8), 1e-5)
	at := func(ll motion.LatLon) (float64, float64) {
		x, y := p.PointF(ll)
		return x + marginX, y + marginY
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`, width, height, width, height, stroke)

	for i, ll := range track {
		x, y := at(ll)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	sx, sy := at(track[0])
	ex, ey := at(track[len(track)-1])
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"none\" stroke=\"%s\"/>\n", sx, sy, stroke)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", ex, ey, stroke)
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
