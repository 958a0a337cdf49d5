package render

import (
	"bytes"
	"fmt"
	"image/color"

	svg "github.com/ajstarks/svgo"
)

// encodeSVG serializes a scene as standalone SVG markup.
func encodeSVG(s *scene) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(s.width, s.height)

	for _, sh := range s.shapes {
		switch sh.kind {
		case shapeRect:
			canvas.Rect(int(sh.x), int(sh.y), int(sh.w), int(sh.h), rectStyle(sh))
		case shapeLine:
			canvas.Line(int(sh.x1), int(sh.y1), int(sh.x2), int(sh.y2),
				fmt.Sprintf("stroke:%s;stroke-width:%.1f", cssColor(sh.stroke), sh.strokeWidth))
		case shapePolygon:
			xs := make([]int, len(sh.pts))
			ys := make([]int, len(sh.pts))
			for i, pt := range sh.pts {
				xs[i] = int(pt.x)
				ys[i] = int(pt.y)
			}
			canvas.Polygon(xs, ys, rectStyle(sh))
		case shapeCircle:
			canvas.Circle(int(sh.x), int(sh.y), int(sh.w),
				fmt.Sprintf("fill:%s", cssColor(sh.fill)))
		case shapeText:
			canvas.Text(int(sh.x), int(sh.y), sh.text, textStyle(sh))
		}
	}

	canvas.End()
	return buf.Bytes()
}

func rectStyle(sh shape) string {
	style := fmt.Sprintf("fill:%s", cssColor(sh.fill))
	if sh.fill.A == 0 {
		style = "fill:none"
	}
	if sh.strokeWidth > 0 {
		style += fmt.Sprintf(";stroke:%s;stroke-width:%.1f", cssColor(sh.stroke), sh.strokeWidth)
	}
	return style
}

func textStyle(sh shape) string {
	a := "start"
	switch sh.anchor {
	case anchorMiddle:
		a = "middle"
	case anchorEnd:
		a = "end"
	}
	weight := "normal"
	if sh.bold {
		weight = "bold"
	}
	return fmt.Sprintf("fill:%s;font-family:monospace;font-size:13px;font-weight:%s;text-anchor:%s",
		cssColor(sh.fill), weight, a)
}

func cssColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
