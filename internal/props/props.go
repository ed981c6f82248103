// Package props reads typed values out of map entity key/value property bags.
//
// Every accessor takes a caller default and never fails: absent or malformed
// values fall back to the default so one corrupt optional field cannot abort a
// whole map build.
package props

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/pkg/geomap"
)

// Well-known keys.
const (
	KeyClassname  = "classname"
	KeyOrigin     = "origin"
	KeyAngles     = "angles"
	KeyTargetname = "targetname"
	KeyTarget     = "target"
)

// Properties maps property keys to raw string values.
type Properties map[string]string

// FromPairs builds Properties from source pairs. Later duplicates win.
func FromPairs(pairs []geomap.Property) Properties {
	p := make(Properties, len(pairs))
	for _, kv := range pairs {
		p[kv.Key] = kv.Value
	}
	return p
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Classname returns the entity classname or "".
func (p Properties) Classname() string {
	return p[KeyClassname]
}

// String returns the raw value or def when absent.
func (p Properties) String(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// StringOrNone returns a pointer to the value, or def (possibly nil) when absent.
// Use it where absence itself changes behavior downstream.
func (p Properties) StringOrNone(key string, def *string) *string {
	if v, ok := p[key]; ok {
		return &v
	}
	return def
}

// Float returns the value parsed as a finite 32-bit float, or def.
func (p Properties) Float(key string, def float32) float32 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, ok := parseFloat(strings.TrimSpace(v))
	if !ok {
		return def
	}
	return f
}

// Bool returns true for "1" or "true", false for any other present value, def when absent.
func (p Properties) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch strings.TrimSpace(v) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// Vec3 returns three whitespace-separated floats, or def if there are not exactly
// three numeric tokens.
func (p Properties) Vec3(key string, def mgl32.Vec3) mgl32.Vec3 {
	v, ok := p[key]
	if !ok {
		return def
	}
	vals, ok := parseFloats(v, 3)
	if !ok {
		return def
	}
	return mgl32.Vec3{vals[0], vals[1], vals[2]}
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the default light color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Vec3 returns the RGB part.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// Color reads "r g b" or "r g b a". Components above 1 mean the editor wrote
// 0-255 values, in which case all components are divided by 255.
func (p Properties) Color(key string, def Color) Color {
	v, ok := p[key]
	if !ok {
		return def
	}
	vals, ok := parseFloats(v, 3)
	if !ok {
		vals, ok = parseFloats(v, 4)
		if !ok {
			return def
		}
	}

	scale := float32(1)
	for _, c := range vals {
		if c < 0 {
			return def
		}
		if c > 1 {
			scale = 255
		}
	}

	c := Color{R: vals[0] / scale, G: vals[1] / scale, B: vals[2] / scale, A: 1}
	if len(vals) == 4 {
		c.A = vals[3] / scale
	}
	return c
}

func parseFloats(s string, n int) ([]float32, bool) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, false
	}
	out := make([]float32, n)
	for i, f := range fields {
		v, ok := parseFloat(f)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// parseFloat rejects NaN and infinities along with syntax errors.
func parseFloat(s string) (float32, bool) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return float32(f), true
}
