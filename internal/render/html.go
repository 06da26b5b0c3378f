package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const documentStyle = `
.pdf-content { font-family: 'Inter', Arial, sans-serif; padding: 40px; color: #1e293b; }
.pdf-header { background: linear-gradient(135deg, #004B63, #003d51); color: white; padding: 30px; margin: -40px -40px 30px -40px; }
.pdf-logo { font-size: 28px; font-weight: 700; margin-bottom: 5px; }
.pdf-logo span { opacity: 0.8; }
.pdf-subtitle { font-size: 14px; opacity: 0.9; }
.pdf-date { font-size: 13px; opacity: 0.8; margin-top: 10px; }
.patient-info, .dental-chart-section { background: #f8fafc; border: 1px solid #e2e8f0; border-radius: 12px; padding: 20px; margin-bottom: 25px; }
.patient-info h4, .dental-chart-section h4 { color: #004B63; font-size: 14px; font-weight: 600; margin: 0 0 15px 0; text-transform: uppercase; letter-spacing: 0.5px; }
.patient-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 15px; }
.patient-item label { font-size: 11px; color: #64748b; display: block; margin-bottom: 3px; }
.patient-item p { font-size: 15px; font-weight: 500; margin: 0; }
.arch { display: flex; justify-content: center; gap: 4px; margin: 6px 0; }
.static-tooth { width: 28px; text-align: center; font-size: 10px; color: #475569; }
.dots { display: flex; justify-content: center; gap: 2px; min-height: 8px; margin-top: 2px; }
.dot { width: 8px; height: 8px; border-radius: 50%; display: inline-block; }
.legend { display: flex; flex-wrap: wrap; gap: 10px; margin-top: 12px; justify-content: center; font-size: 10px; color: #64748b; }
.legend .dot { width: 12px; height: 12px; }
.section { margin-bottom: 20px; border: 1px solid #e2e8f0; border-radius: 10px; overflow: hidden; }
.section-title { background: #f1f5f9; color: #334155; font-size: 14px; font-weight: 600; padding: 12px 20px; margin: 0; border-bottom: 1px solid #e2e8f0; }
.section-content { padding: 15px 20px; }
.section-content p { margin: 8px 0; font-size: 14px; color: #475569; }
.section-content strong { color: #004B63; }
.empty-message { text-align: center; color: #94a3b8; font-style: italic; padding: 40px; }
.images-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 15px; }
.image-item { text-align: center; }
.image-thumb { width: 100%; height: 120px; object-fit: cover; border-radius: 8px; border: 1px solid #e2e8f0; }
.image-caption { font-size: 11px; color: #64748b; margin: 5px 0 0 0; }
.pdf-footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e2e8f0; text-align: center; font-size: 11px; color: #94a3b8; }
`

const documentTemplates = `
{{define "tooth"}}<div class="static-tooth" data-tooth="{{.Tooth}}">{{.Tooth}}<div class="dots">{{range .Colors}}<span class="dot" style="background: {{.}}"></span>{{end}}</div></div>{{end}}

{{define "body"}}<div class="pdf-content">
<div class="pdf-header">
<div class="pdf-logo">Hello <span>PdT</span></div>
<div class="pdf-subtitle">Plan de Traitement Dentaire</div>
<div class="pdf-date">Date : {{.Date}}</div>
</div>
<div class="patient-info">
<h4>Informations Patient</h4>
<div class="patient-grid">
<div class="patient-item"><label>Patient</label><p>{{.Patient}}</p></div>
<div class="patient-item"><label>Praticien</label><p>{{.Practitioner}}</p></div>
</div>
</div>
<div class="dental-chart-section">
<h4>Schéma Dentaire</h4>
<div class="arch arch-upper">{{range .Chart.Upper}}{{template "tooth" .}}{{end}}</div>
<div class="arch arch-lower">{{range .Chart.Lower}}{{template "tooth" .}}{{end}}</div>
<div class="legend">{{range .Legend}}<span><span class="dot" style="background: {{.Color}}"></span> {{.Label}}</span>{{end}}</div>
</div>
{{if .Empty}}<div class="empty-message">Aucun traitement sélectionné</div>{{end}}
{{range .Sections}}<div class="section">
<h3 class="section-title">{{if .Number}}{{.Number}}. {{end}}{{.Title}}</h3>
<div class="section-content">
{{range .Items}}<p>✓ {{.Label}}{{if .Teeth}} : <strong>{{.Teeth}}</strong>{{end}}</p>
{{end}}{{if .Images}}<div class="images-grid">
{{range .Images}}<div class="image-item"><img src="{{imgsrc .Data}}" alt="{{.Name}}" class="image-thumb"><p class="image-caption">{{.Name}}</p></div>
{{end}}</div>{{end}}{{if .Notes}}<p>{{range $i, $l := .Notes}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>{{end}}
</div>
</div>
{{end}}<div class="pdf-footer">
Hello PdT - Plan de Traitement Dentaire{{if .GeneratedAt}}<br>
{{.GeneratedAt}}{{end}}
</div>
</div>{{end}}

{{define "document"}}<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"><title>Plan de Traitement</title><style>{{style}}</style></head>
<body>{{template "body" .}}</body>
</html>{{end}}
`

func parseTemplates() (*template.Template, error) {
	return template.New("render").Funcs(template.FuncMap{
		"imgsrc": imageSource,
		"style":  func() template.CSS { return template.CSS(documentStyle) },
	}).Parse(documentTemplates)
}

// imageSource lets embedded images and remote https images through; anything
// else is blanked.
func imageSource(src string) template.URL {
	if strings.HasPrefix(src, "data:image/") || strings.HasPrefix(src, "https://") {
		return template.URL(src)
	}
	return ""
}

func executeTemplate(t *template.Template, name string, doc Document) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, doc); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
