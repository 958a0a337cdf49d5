package render

import (
	"bytes"
	"fmt"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// encodePNG rasterizes a scene with gg.
func encodePNG(s *scene) ([]byte, error) {
	dc := gg.NewContext(s.width, s.height)
	dc.SetFontFace(basicfont.Face7x13)

	for _, sh := range s.shapes {
		switch sh.kind {
		case shapeRect:
			if sh.fill.A > 0 {
				dc.SetColor(sh.fill)
				dc.DrawRectangle(sh.x, sh.y, sh.w, sh.h)
				dc.Fill()
			}
			if sh.strokeWidth > 0 {
				dc.SetColor(sh.stroke)
				dc.SetLineWidth(sh.strokeWidth)
				dc.DrawRectangle(sh.x, sh.y, sh.w, sh.h)
				dc.Stroke()
			}
		case shapeLine:
			dc.SetColor(sh.stroke)
			dc.SetLineWidth(sh.strokeWidth)
			dc.DrawLine(sh.x1, sh.y1, sh.x2, sh.y2)
			dc.Stroke()
		case shapePolygon:
			if len(sh.pts) < 3 {
				continue
			}
			dc.MoveTo(sh.pts[0].x, sh.pts[0].y)
			for _, pt := range sh.pts[1:] {
				dc.LineTo(pt.x, pt.y)
			}
			dc.ClosePath()
			dc.SetColor(sh.fill)
			dc.FillPreserve()
			if sh.strokeWidth > 0 {
				dc.SetColor(sh.stroke)
				dc.SetLineWidth(sh.strokeWidth)
				dc.Stroke()
			} else {
				dc.ClearPath()
			}
		case shapeCircle:
			dc.SetColor(sh.fill)
			dc.DrawCircle(sh.x, sh.y, sh.w)
			dc.Fill()
		case shapeText:
			dc.SetColor(sh.fill)
			ax := 0.0
			switch sh.anchor {
			case anchorMiddle:
				ax = 0.5
			case anchorEnd:
				ax = 1.0
			}
			dc.DrawStringAnchored(sh.text, sh.x, sh.y, ax, 0)
			if sh.bold {
				// basicfont has no bold face, so overstrike by a pixel.
				dc.DrawStringAnchored(sh.text, sh.x+1, sh.y, ax, 0)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding chart PNG: %w", err)
	}
	return buf.Bytes(), nil
}
