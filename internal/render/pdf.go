package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/media"
)

// A4 at 150 dpi.
const (
	pageW      = 1240.0
	pageH      = 1754.0
	pageMargin = 70.0
	contentW   = pageW - 2*pageMargin
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
)

// pager lays the document out top to bottom and opens a new page when the
// next block does not fit.
type pager struct {
	fs    fontSet
	pages []image.Image
	dc    *gg.Context
	y     float64
}

func (p *pager) newPage() {
	if p.dc != nil {
		p.pages = append(p.pages, p.dc.Image())
	}
	p.dc = gg.NewContext(int(pageW), int(pageH))
	p.dc.SetHexColor("#ffffff")
	p.dc.Clear()
	p.y = pageMargin
}

func (p *pager) ensure(h float64) {
	if p.y+h > pageH-pageMargin {
		p.newPage()
	}
}

func (p *pager) finish() []image.Image {
	if p.dc != nil {
		p.pages = append(p.pages, p.dc.Image())
		p.dc = nil
	}
	return p.pages
}

func (p *pager) text(s string, bold bool, size float64, color string, x float64) {
	p.dc.SetFontFace(p.fs.face(bold, size))
	p.dc.SetHexColor(color)
	p.dc.DrawStringAnchored(s, x, p.y, 0, 1)
}

func (p *pager) wrapped(s string, size float64, color string, x, width float64) {
	p.dc.SetFontFace(p.fs.face(false, size))
	lines := p.dc.WordWrap(s, width)
	for _, line := range lines {
		p.ensure(size * 1.5)
		p.dc.SetFontFace(p.fs.face(false, size))
		p.dc.SetHexColor(color)
		p.dc.DrawStringAnchored(line, x, p.y, 0, 1)
		p.y += size * 1.5
	}
}

func (p *pager) checkMark(x, y, size float64) {
	p.dc.SetHexColor("#004B63")
	p.dc.SetLineWidth(3)
	p.dc.MoveTo(x, y+size*0.55)
	p.dc.LineTo(x+size*0.35, y+size*0.9)
	p.dc.LineTo(x+size, y+size*0.1)
	p.dc.Stroke()
}

func (p *pager) header(doc Document) {
	p.dc.SetHexColor("#004B63")
	p.dc.DrawRectangle(0, 0, pageW, 190)
	p.dc.Fill()
	p.y = 45
	p.text(Brand, true, 46, "#ffffff", pageMargin)
	p.y += 65
	p.text(Subtitle, false, 24, "#e2e8f0", pageMargin)
	p.y += 40
	p.text("Date : "+doc.Date, false, 22, "#cbd5e1", pageMargin)
	p.y = 230
}

func (p *pager) box(h float64) {
	p.dc.SetHexColor("#f8fafc")
	p.dc.DrawRoundedRectangle(pageMargin, p.y, contentW, h, 16)
	p.dc.FillPreserve()
	p.dc.SetHexColor("#e2e8f0")
	p.dc.SetLineWidth(2)
	p.dc.Stroke()
}

func (p *pager) patient(doc Document) {
	const h = 150.0
	p.ensure(h)
	p.box(h)
	top := p.y
	p.y = top + 25
	p.text("INFORMATIONS PATIENT", true, 20, "#004B63", pageMargin+25)
	p.y = top + 65
	p.text("Patient", false, 16, "#64748b", pageMargin+25)
	p.text("Praticien", false, 16, "#64748b", pageMargin+25+contentW/2)
	p.y = top + 90
	p.text(doc.Patient, false, 26, "#1e293b", pageMargin+25)
	p.text(doc.Practitioner, false, 26, "#1e293b", pageMargin+25+contentW/2)
	p.y = top + h + 35
}

func (p *pager) chart(doc Document) {
	cw, ch := chartSize()
	scale := (contentW - 50) / cw
	h := 70 + ch*scale + 70
	p.ensure(h)
	p.box(h)
	top := p.y
	p.y = top + 25
	p.text("SCHÉMA DENTAIRE", true, 20, "#004B63", pageMargin+25)
	drawChart(p.dc, p.fs, doc.Chart, pageMargin+25, top+70, scale)

	// legend
	p.dc.SetFontFace(p.fs.face(false, 16))
	x := pageMargin + 25.0
	ly := top + 70 + ch*scale + 30
	for _, e := range doc.Legend {
		p.dc.SetHexColor(e.Color)
		p.dc.DrawCircle(x+9, ly, 9)
		p.dc.Fill()
		p.dc.SetHexColor("#64748b")
		p.dc.DrawStringAnchored(e.Label, x+24, ly, 0, 0.5)
		tw, _ := p.dc.MeasureString(e.Label)
		x += 24 + tw + 30
	}
	p.y = top + h + 35
}

func (p *pager) section(s Section) {
	p.ensure(120)
	title := s.Title
	if s.Number > 0 {
		title = strconv.Itoa(s.Number) + ". " + title
	}
	p.dc.SetHexColor("#f1f5f9")
	p.dc.DrawRoundedRectangle(pageMargin, p.y, contentW, 56, 10)
	p.dc.Fill()
	p.y += 16
	p.text(title, true, 24, "#334155", pageMargin+25)
	p.y += 60

	for _, it := range s.Items {
		line := it.Label
		if it.Teeth != "" {
			line += " : " + it.Teeth
		}
		p.ensure(36)
		p.checkMark(pageMargin+25, p.y+2, 20)
		p.wrapped(line, 22, "#475569", pageMargin+60, contentW-85)
	}
	if len(s.Images) > 0 {
		p.images(s.Images)
	}
	for _, n := range s.Notes {
		if n == "" {
			p.y += 22
			continue
		}
		p.wrapped(n, 22, "#475569", pageMargin+25, contentW-50)
	}
	p.y += 30
}

func (p *pager) images(imgs []Image) {
	const gap, thumbH, captionH = 30.0, 200.0, 40.0
	thumbW := (contentW - 50 - 2*gap) / 3
	for i, im := range imgs {
		col := i % 3
		if col == 0 {
			if i > 0 {
				p.y += thumbH + captionH
			}
			p.ensure(thumbH + captionH)
		}
		x := pageMargin + 25 + float64(col)*(thumbW+gap)
		p.thumbnail(im, x, p.y, thumbW, thumbH)
		p.dc.SetFontFace(p.fs.face(false, 16))
		p.dc.SetHexColor("#64748b")
		p.dc.DrawStringAnchored(im.Name, x+thumbW/2, p.y+thumbH+10, 0.5, 1)
	}
	p.y += thumbH + captionH + 10
}

// thumbnail fits the image into the box keeping its aspect ratio. Images that
// cannot be decoded leave an empty frame.
func (p *pager) thumbnail(im Image, x, y, w, h float64) {
	p.dc.SetHexColor("#e2e8f0")
	p.dc.SetLineWidth(2)
	p.dc.DrawRoundedRectangle(x, y, w, h, 10)
	p.dc.Stroke()

	_, raw, err := media.ParseDataURL(im.Data)
	if err != nil {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	scale := min(w/float64(b.Dx()), h/float64(b.Dy()))
	dw, dh := int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)
	if dw < 1 || dh < 1 {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	p.dc.DrawImage(dst, int(x+(w-float64(dw))/2), int(y+(h-float64(dh))/2))
}

func (p *pager) footer(doc Document) {
	p.ensure(100)
	p.y += 20
	p.dc.SetHexColor("#e2e8f0")
	p.dc.SetLineWidth(2)
	p.dc.DrawLine(pageMargin, p.y, pageW-pageMargin, p.y)
	p.dc.Stroke()
	p.y += 25
	p.dc.SetFontFace(p.fs.face(false, 16))
	p.dc.SetHexColor("#94a3b8")
	p.dc.DrawStringAnchored(Brand+" - "+Subtitle, pageW/2, p.y, 0.5, 1)
	if doc.GeneratedAt != "" {
		p.y += 26
		p.dc.DrawStringAnchored(doc.GeneratedAt, pageW/2, p.y, 0.5, 1)
	}
}

// Pages rasterizes the document into A4 page images.
func (r *Renderer) Pages(rec plan.Record) []image.Image {
	doc := r.Document(rec)
	p := &pager{fs: r.fonts}
	p.newPage()
	p.header(doc)
	p.patient(doc)
	p.chart(doc)
	if doc.Empty {
		p.ensure(120)
		p.y += 40
		p.dc.SetFontFace(p.fs.face(false, 24))
		p.dc.SetHexColor("#94a3b8")
		p.dc.DrawStringAnchored(EmptyMessage, pageW/2, p.y, 0.5, 0.5)
		p.y += 80
	}
	for _, s := range doc.Sections {
		p.section(s)
	}
	p.footer(doc)
	return p.finish()
}

// PDF embeds the rasterized pages into an A4 PDF.
func (r *Renderer) PDF(rec plan.Record) ([]byte, error) {
	return r.cached(rec, "pdf", func() ([]byte, error) {
		pages := r.Pages(rec)

		pdf := fpdf.New("P", "mm", "A4", "")
		pdf.SetMargins(0, 0, 0)
		pdf.SetAutoPageBreak(false, 0)
		pdf.SetTitle("Plan de Traitement - "+rec.Patient.DisplayName(), true)
		pdf.SetCreator(Brand, true)
		stamp := time.Unix(0, 0).UTC()
		if rec.UpdatedAt != nil {
			stamp = rec.UpdatedAt.UTC()
		} else if rec.CreatedAt != nil {
			stamp = rec.CreatedAt.UTC()
		}
		pdf.SetCreationDate(stamp)
		pdf.SetModificationDate(stamp)

		opts := fpdf.ImageOptions{ImageType: "PNG"}
		for i, page := range pages {
			var buf bytes.Buffer
			if err := png.Encode(&buf, page); err != nil {
				return nil, fmt.Errorf("encode page %d: %w", i+1, err)
			}
			name := "page-" + strconv.Itoa(i+1)
			pdf.AddPage()
			pdf.RegisterImageOptionsReader(name, opts, &buf)
			pdf.ImageOptions(name, 0, 0, a4WidthMM, a4HeightMM, false, opts, 0, "")
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("build pdf: %w", err)
		}
		var out bytes.Buffer
		if err := pdf.Output(&out); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		return out.Bytes(), nil
	})
}
