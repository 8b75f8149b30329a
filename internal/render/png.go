package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"git.home.luguber.info/inful/contentbuilder/internal/entity"
)

// Artifact dimensions (Open Graph preview size).
const (
	Width  = 1200
	Height = 630

	margin          = 80
	titleSize       = 64
	descriptionSize = 30
	labelSize       = 26
	maxTitleLines   = 3
	maxDescLines    = 3
)

var (
	background = color.RGBA{R: 0x10, G: 0x18, B: 0x2b, A: 0xff}
	foreground = color.RGBA{R: 0xf5, G: 0xf7, B: 0xfa, A: 0xff}
	muted      = color.RGBA{R: 0xa0, G: 0xae, B: 0xc0, A: 0xff}

	accents = map[entity.Type]color.RGBA{
		entity.TypeHome:      {R: 0x4f, G: 0x8c, B: 0xff, A: 0xff},
		entity.TypeLanding:   {R: 0x4f, G: 0x8c, B: 0xff, A: 0xff},
		entity.TypeDocs:      {R: 0x38, G: 0xc1, B: 0x72, A: 0xff},
		entity.TypeBlog:      {R: 0xf6, G: 0xad, B: 0x55, A: 0xff},
		entity.TypeReference: {R: 0x9f, G: 0x7a, B: 0xea, A: 0xff},
		entity.TypePackages:  {R: 0xed, G: 0x64, B: 0xa6, A: 0xff},
	}
)

// PNGRenderer draws a preview card with the entity's section label, title and
// description using the Go fonts.
type PNGRenderer struct {
	siteTitle string
	regular   *opentype.Font
	bold      *opentype.Font
}

// NewPNGRenderer parses the embedded fonts. siteTitle is printed in the footer.
func NewPNGRenderer(siteTitle string) (*PNGRenderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &PNGRenderer{siteTitle: siteTitle, regular: regular, bold: bold}, nil
}

// Render draws e as a PNG into w. Faces are created per call since they are
// not safe for concurrent use.
func (r *PNGRenderer) Render(ctx context.Context, e entity.Entity, w io.Writer) error {
	titleFace, err := r.face(r.bold, titleSize)
	if err != nil {
		return err
	}
	defer titleFace.Close()
	descFace, err := r.face(r.regular, descriptionSize)
	if err != nil {
		return err
	}
	defer descFace.Close()
	labelFace, err := r.face(r.bold, labelSize)
	if err != nil {
		return err
	}
	defer labelFace.Close()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	accent, ok := accents[e.Type]
	if !ok {
		accent = accents[entity.TypeHome]
	}
	draw.Draw(img, image.Rect(0, 0, 16, Height), &image.Uniform{C: accent}, image.Point{}, draw.Src)

	y := margin + labelSize
	drawText(img, labelFace, accent, margin, y, strings.ToUpper(label(e)))
	y += 40

	maxWidth := fixed.I(Width - 2*margin)
	for _, line := range wrap(titleFace, e.Title, maxWidth, maxTitleLines) {
		y += titleSize + 8
		drawText(img, titleFace, foreground, margin, y, line)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	y += 24
	for _, line := range wrap(descFace, e.Description, maxWidth, maxDescLines) {
		y += descriptionSize + 10
		drawText(img, descFace, muted, margin, y, line)
	}

	if r.siteTitle != "" {
		drawText(img, labelFace, muted, margin, Height-margin/2, r.siteTitle)
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func (r *PNGRenderer) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

func label(e entity.Entity) string {
	switch {
	case e.Section != "":
		return e.Section
	case e.Type != "":
		return string(e.Type)
	}
	return "page"
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

// wrap breaks s into at most maxLines lines no wider than maxWidth. The last
// line is truncated with an ellipsis when text remains.
func wrap(face font.Face, s string, maxWidth fixed.Int26_6, maxLines int) []string {
	words := strings.Fields(s)
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if font.MeasureString(face, candidate) <= maxWidth || current == "" {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
		if len(lines) == maxLines {
			lines[maxLines-1] = ellipsize(face, lines[maxLines-1], maxWidth)
			return lines
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) > 0 {
		last := len(lines) - 1
		if font.MeasureString(face, lines[last]) > maxWidth {
			lines[last] = ellipsize(face, lines[last], maxWidth)
		}
	}
	return lines
}

func ellipsize(face font.Face, s string, maxWidth fixed.Int26_6) string {
	const ellipsis = "…"
	for utf8.RuneCountInString(s) > 0 && font.MeasureString(face, s+ellipsis) > maxWidth {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return strings.TrimSpace(s) + ellipsis
}
