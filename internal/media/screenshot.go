package media

import (
	"strings"
	"sync"
)

// MaxScreenshotChars is the largest inline screenshot a record may carry.
const MaxScreenshotChars = 1048487

const (
	WarnScreenshotTooLarge = "La capture d'écran est trop volumineuse"
	WarnCaptureDeclined    = "Capture annulée ou non autorisée"
)

// Screenshot is the single optional capture slot of a draft.
type Screenshot struct {
	mu   sync.RWMutex
	data string
}

func (s *Screenshot) Set(dataURL string) {
	s.mu.Lock()
	s.data = strings.TrimSpace(dataURL)
	s.mu.Unlock()
}

func (s *Screenshot) Clear() { s.Set("") }

func (s *Screenshot) Data() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// FitScreenshot returns data unchanged when it fits in max characters, and
// "" plus ok=false when it must be dropped.
func FitScreenshot(data string, max int) (string, bool) {
	if max <= 0 {
		max = MaxScreenshotChars
	}
	if len(data) > max {
		return "", false
	}
	return data, true
}
