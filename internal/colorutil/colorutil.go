// Package colorutil converts document colors to the formats sent over the wire.
package colorutil

import (
	"encoding/base64"
	"fmt"
	"math"
)

// RGBA is a color with channels in the 0..1 range. A nil A means fully opaque.
type RGBA struct {
	R float64  `json:"r"`
	G float64  `json:"g"`
	B float64  `json:"b"`
	A *float64 `json:"a,omitempty"`
}

// ToHex renders c as #rrggbb, or #rrggbbaa when the alpha byte is not 255.
func ToHex(c RGBA) string {
	r, g, b := toByte(c.R), toByte(c.G), toByte(c.B)
	a := 255
	if c.A != nil {
		a = toByte(*c.A)
	}
	if a == 255 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

// Base64 encodes a binary buffer with standard padded base64.
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Alpha returns a pointer to a, for building RGBA literals.
func Alpha(a float64) *float64 {
	return &a
}

func toByte(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
