package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Radiograph is a decoded X-ray ready to be attached as an image.
type Radiograph struct {
	Image image.Image
	// Study date when the source was DICOM and carried one.
	StudyDate time.Time
	DICOM     bool
}

var ErrNoPixelData = errors.New("dicom file has no pixel data")

// IsDICOM checks for the "DICM" magic after the 128-byte preamble.
func IsDICOM(raw []byte) bool {
	return len(raw) >= 132 && string(raw[128:132]) == "DICM"
}

// DecodeRadiograph accepts a DICOM Part 10 file (first frame is used) or any
// image format Compress understands.
func DecodeRadiograph(raw []byte) (*Radiograph, error) {
	if !IsDICOM(raw) {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
		}
		return &Radiograph{Image: img}, nil
	}

	ds, err := dicom.Parse(bytes.NewReader(raw), int64(len(raw)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom: %w", err)
	}
	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, ErrNoPixelData
	}
	info := dicom.MustGetPixelDataInfo(pixelElem.Value)
	if len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}
	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("dicom frame to image: %w", err)
	}

	out := &Radiograph{Image: img, DICOM: true}
	if elem, err := ds.FindElementByTag(tag.StudyDate); err == nil && elem != nil {
		if d, ok := parseDicomDate(elem.Value.String()); ok {
			out.StudyDate = d
		}
	}
	return out, nil
}

func parseDicomDate(raw string) (time.Time, bool) {
	s := strings.Trim(raw, " []")
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
