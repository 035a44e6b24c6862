package memdoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/ttfbridge/host/internal/document"
)

const maxExportSide = 4096

// renderPNG rasterizes a node as a flat rectangle of its first visible
// solid fill. Nodes without one render transparent.
func renderPNG(w, h float64, fills []document.Paint, settings document.ExportSettings) ([]byte, error) {
	format := strings.ToUpper(settings.Format)
	if format == "" {
		format = "PNG"
	}
	if format != "PNG" {
		return nil, fmt.Errorf("Unsupported export format: %s", settings.Format)
	}
	scale := settings.Scale
	if scale <= 0 {
		scale = 1
	}
	pw := exportSide(w * scale)
	ph := exportSide(h * scale)

	var fill color.NRGBA
	for _, p := range fills {
		if p.Type != "SOLID" || p.Color == nil || (p.Visible != nil && !*p.Visible) {
			continue
		}
		opacity := 1.0
		if p.Opacity != nil {
			opacity = *p.Opacity
		}
		fill = color.NRGBA{
			R: channel(p.Color.R),
			G: channel(p.Color.G),
			B: channel(p.Color.B),
			A: channel(opacity),
		}
		break
	}

	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func exportSide(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > maxExportSide {
		return maxExportSide
	}
	return n
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

type svgPath struct {
	fill *document.Color
}

type svgDoc struct {
	width, height float64
	paths         []svgPath
}

type svgElement struct {
	XMLName  xml.Name
	Width    string       `xml:"width,attr"`
	Height   string       `xml:"height,attr"`
	ViewBox  string       `xml:"viewBox,attr"`
	Fill     string       `xml:"fill,attr"`
	Children []svgElement `xml:",any"`
}

// parseSVG reads the root size and collects drawable shapes. Geometry is not
// kept; each shape becomes one vector layer.
func parseSVG(src string) (svgDoc, error) {
	var root svgElement
	if err := xml.Unmarshal([]byte(src), &root); err != nil {
		return svgDoc{}, fmt.Errorf("Failed to parse SVG: %v", err)
	}
	if root.XMLName.Local != "svg" {
		return svgDoc{}, fmt.Errorf("Failed to parse SVG: root element is <%s>", root.XMLName.Local)
	}
	out := svgDoc{width: svgLength(root.Width), height: svgLength(root.Height)}
	if (out.width == 0 || out.height == 0) && root.ViewBox != "" {
		f := strings.Fields(strings.ReplaceAll(root.ViewBox, ",", " "))
		if len(f) == 4 {
			out.width = svgLength(f[2])
			out.height = svgLength(f[3])
		}
	}
	if out.width == 0 {
		out.width = 100
	}
	if out.height == 0 {
		out.height = 100
	}
	var walk func(el svgElement, inherited string)
	walk = func(el svgElement, inherited string) {
		fill := inherited
		if el.Fill != "" {
			fill = el.Fill
		}
		switch el.XMLName.Local {
		case "path", "rect", "circle", "ellipse", "polygon", "polyline", "line":
			out.paths = append(out.paths, svgPath{fill: parseHexFill(fill)})
		}
		for _, c := range el.Children {
			walk(c, fill)
		}
	}
	for _, c := range root.Children {
		walk(c, root.Fill)
	}
	return out, nil
}

func svgLength(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseHexFill(s string) *document.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil
	}
	return &document.Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}
