package threemf

import (
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/math32"
)

// parseColor decodes a "#RRGGBB" or "#RRGGBBAA" colour string into RGBA
// in [0,1]. Per §9, a malformed colour string is not an error: it is
// silently ignored, leaving the caller's property unset. This is a
// preserved source-level quirk, not a guess at intended behaviour — do
// not change it to return an error.
func parseColor(s string) (math32.Vector4, bool) {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 6:
		r, ok1 := hexChannel(s[0:2])
		g, ok2 := hexChannel(s[2:4])
		b, ok3 := hexChannel(s[4:6])
		if !ok1 || !ok2 || !ok3 {
			return math32.Vector4{}, false
		}
		return math32.Vector4{X: r, Y: g, Z: b, W: 1}, true
	case 8:
		r, ok1 := hexChannel(s[0:2])
		g, ok2 := hexChannel(s[2:4])
		b, ok3 := hexChannel(s[4:6])
		a, ok4 := hexChannel(s[6:8])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return math32.Vector4{}, false
		}
		return math32.Vector4{X: r, Y: g, Z: b, W: a}, true
	default:
		return math32.Vector4{}, false
	}
}

func hexChannel(s string) (float32, bool) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return float32(v) / 255, true
}

// formatColor is parseColor's inverse, used by the exporter.
func formatColor(c math32.Vector4) string {
	clamp := func(v float32) byte {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return byte(v*255 + 0.5)
	}
	b := []byte{'#', 0, 0, 0, 0, 0, 0, 0, 0}
	hex := "0123456789ABCDEF"
	put := func(off int, v byte) {
		b[off] = hex[v>>4]
		b[off+1] = hex[v&0xf]
	}
	put(1, clamp(c.X))
	put(3, clamp(c.Y))
	put(5, clamp(c.Z))
	put(7, clamp(c.W))
	return string(b)
}
