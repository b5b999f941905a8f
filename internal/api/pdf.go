package api

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/sketchsync/server/internal/canvas"
)

// Canvas pixels to millimeters on an A4 page
const pdfScale = 3.0

// Renders the committed strokes of a room as line segments on an A4 page
func WritePDF(w io.Writer, strokes []canvas.Stroke) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()

	for _, stroke := range strokes {
		r, g, b := parseHexColor(stroke.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(stroke.Width / pdfScale)
		p.SetLineCapStyle("round")

		for i := 1; i < len(stroke.Points); i++ {
			p.Line(
				stroke.Points[i-1].X/pdfScale, stroke.Points[i-1].Y/pdfScale,
				stroke.Points[i].X/pdfScale, stroke.Points[i].Y/pdfScale,
			)
		}
	}

	return p.Output(w)
}

// Accepts "#RGB" and "#RRGGBB"; anything else renders black
func parseHexColor(s string) (int, int, int) {
	if len(s) == 0 || s[0] != '#' {
		return 0, 0, 0
	}
	hex := s[1:]

	switch len(hex) {
	case 3:
		r := hexDigit(hex[0])
		g := hexDigit(hex[1])
		b := hexDigit(hex[2])
		if r < 0 || g < 0 || b < 0 {
			return 0, 0, 0
		}
		return r * 17, g * 17, b * 17
	case 6:
		r := hexDigit(hex[0])*16 + hexDigit(hex[1])
		g := hexDigit(hex[2])*16 + hexDigit(hex[3])
		b := hexDigit(hex[4])*16 + hexDigit(hex[5])
		if r < 0 || g < 0 || b < 0 {
			return 0, 0, 0
		}
		return r, g, b
	default:
		return 0, 0, 0
	}
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -255
	}
}
