package render

import (
	"strings"

	"github.com/k3a/html2text"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

// Text is a plain-text rendition of the document body.
func (r *Renderer) Text(rec plan.Record) (string, error) {
	out, err := r.cached(rec, "text", func() ([]byte, error) {
		body, err := executeTemplate(r.tmpl, "body", r.Document(rec))
		if err != nil {
			return nil, err
		}
		text := html2text.HTML2TextWithOptions(body, html2text.WithUnixLineBreaks())
		return []byte(strings.TrimSpace(text) + "\n"), nil
	})
	return string(out), err
}
