package label

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the pixel size of a label.
type Measurer interface {
	Measure(text string, size float64) (w, h float64)
}

// FontMeasurer measures text with an OpenType face. Faces are created once
// per size and cached.
type FontMeasurer struct {
	font  *opentype.Font
	dpi   float64
	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontMeasurer creates a measurer for the Go Regular face at 72 DPI.
func NewFontMeasurer() (*FontMeasurer, error) {
	return NewFontMeasurerFromTTF(goregular.TTF, 72)
}

// NewFontMeasurerFromTTF creates a measurer for an arbitrary TrueType or
// OpenType font.
func NewFontMeasurerFromTTF(ttf []byte, dpi float64) (*FontMeasurer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	if dpi <= 0 {
		dpi = 72
	}
	return &FontMeasurer{
		font:  f,
		dpi:   dpi,
		faces: make(map[float64]font.Face),
	}, nil
}

// Measure returns the advance width and line height of text at size points.
func (m *FontMeasurer) Measure(text string, size float64) (float64, float64) {
	face, err := m.face(size)
	if err != nil {
		// Unusable size; fall back to the fixed ratios.
		return FixedMeasurer{}.Measure(text, size)
	}
	adv := font.MeasureString(face, text)
	met := face.Metrics()
	return float64(adv.Ceil()), float64((met.Ascent + met.Descent).Ceil())
}

func (m *FontMeasurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     m.dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// FixedMeasurer sizes text from its rune count. Zero ratios default to
// 0.6 (advance) and 1.2 (height) of the font size.
type FixedMeasurer struct {
	AdvanceRatio float64
	HeightRatio  float64
}

// Measure returns runes*size*AdvanceRatio by size*HeightRatio.
func (m FixedMeasurer) Measure(text string, size float64) (float64, float64) {
	adv, height := m.AdvanceRatio, m.HeightRatio
	if adv == 0 {
		adv = 0.6
	}
	if height == 0 {
		height = 1.2
	}
	return float64(utf8.RuneCountInString(text)) * size * adv, size * height
}
