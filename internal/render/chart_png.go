package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

const (
	chartCell   = 56.0
	chartGap    = 6.0
	chartDotR   = 5.0
	chartMargin = 20.0
)

// chartSize is the pixel footprint of drawChart at scale 1.
func chartSize() (w, h float64) {
	w = 16*chartCell + 15*chartGap
	h = 2*(chartCell+3*chartDotR+chartGap) + chartGap*2
	return w, h
}

// drawChart paints both arches at (x, y): one box per tooth with its number
// and a row of dots, one per assigned category.
func drawChart(dc *gg.Context, fs fontSet, chart StaticChart, x, y, scale float64) {
	dc.SetFontFace(fs.face(false, 18*scale))
	row := func(marks []ToothMark, top float64) {
		for i, m := range marks {
			cx := x + float64(i)*(chartCell+chartGap)*scale
			dc.SetHexColor("#ffffff")
			dc.DrawRoundedRectangle(cx, top, chartCell*scale, chartCell*scale, 8*scale)
			dc.FillPreserve()
			dc.SetHexColor("#cbd5e1")
			dc.SetLineWidth(1.5 * scale)
			dc.Stroke()

			dc.SetHexColor("#334155")
			dc.DrawStringAnchored(m.Tooth.String(), cx+chartCell*scale/2, top+chartCell*scale/2, 0.5, 0.5)

			colors := m.Colors()
			if len(colors) == 0 {
				continue
			}
			span := float64(len(colors))*2*chartDotR*scale + float64(len(colors)-1)*2*scale
			dx := cx + (chartCell*scale-span)/2 + chartDotR*scale
			dy := top + chartCell*scale + 2*chartDotR*scale
			for _, c := range colors {
				dc.SetHexColor(c)
				dc.DrawCircle(dx, dy, chartDotR*scale)
				dc.Fill()
				dx += (2*chartDotR + 2) * scale
			}
		}
	}
	row(chart.Upper, y)
	row(chart.Lower, y+(chartCell+3*chartDotR+chartGap*2)*scale)
}

// ChartPNG draws the static chart of a selection as a PNG.
func (r *Renderer) ChartPNG(snap dental.Snapshot) ([]byte, error) {
	snap.Normalize()
	w, h := chartSize()
	dc := gg.NewContext(int(w+2*chartMargin), int(h+2*chartMargin))
	dc.SetHexColor("#f8fafc")
	dc.Clear()
	drawChart(dc, r.fonts, staticChart(snap), chartMargin, chartMargin, 1)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
