// Package render draws a static PNG preview of a board: connector curves
// with arrowheads behind, cards on top in render order.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// Options controls the preview output.
type Options struct {
	Padding  float64 // canvas units around the content
	MaxSide  int     // longest image side in pixels
	FontSize float64
}

func DefaultOptions() Options {
	return Options{Padding: 40, MaxSide: 1600, FontSize: 13}
}

var kindFill = map[domain.CardKind]color.Color{
	domain.CardKindNote:           color.RGBA{0xff, 0xf4, 0xb8, 0xff},
	domain.CardKindDrill:          color.RGBA{0xd6, 0xec, 0xff, 0xff},
	domain.CardKindText:           color.RGBA{0xff, 0xff, 0xff, 0xff},
	domain.CardKindAIReadiness:    color.RGBA{0xe6, 0xdc, 0xff, 0xff},
	domain.CardKindWeeklyCalendar: color.RGBA{0xdc, 0xf5, 0xe3, 0xff},
}

var (
	edgeColor      = color.RGBA{0x55, 0x5b, 0x66, 0xff}
	selectedColor  = color.RGBA{0x25, 0x63, 0xeb, 0xff}
	connectorColor = color.RGBA{0x6b, 0x72, 0x80, 0xff}
)

// PNG encodes a preview of b to w. An empty board yields a blank image of
// twice the padding on each side.
func PNG(w io.Writer, b *canvas.Board, opts Options) error {
	if opts.MaxSide <= 0 {
		opts = DefaultOptions()
	}
	cards := b.Cards.RenderOrder()
	bounds, ok := contentBounds(b, cards)
	if !ok {
		bounds = geometry.Rect{}
	}
	bounds = bounds.Inset(-opts.Padding)

	scale := 1.0
	if long := math.Max(bounds.W, bounds.H); long > float64(opts.MaxSide) {
		scale = float64(opts.MaxSide) / long
	}
	width := int(math.Ceil(bounds.W * scale))
	height := int(math.Ceil(bounds.H * scale))

	dc := gg.NewContext(max(width, 1), max(height, 1))
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-bounds.X, -bounds.Y)

	face, err := loadFace(opts.FontSize)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	byID := make(map[string]domain.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	selConn := b.Selection().ConnectionID()
	for _, conn := range b.Connections.Connections() {
		src, okSrc := byID[conn.SourceCardID]
		dst, okDst := byID[conn.TargetCardID]
		if !okSrc || !okDst {
			continue
		}
		drawConnector(dc, canvas.CurveFor(conn, src, dst), conn.ID == selConn)
	}

	selCard := b.Selection().CardID()
	for _, c := range cards {
		drawCard(dc, c, c.ID == selCard)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

func contentBounds(b *canvas.Board, cards []domain.Card) (geometry.Rect, bool) {
	if len(cards) == 0 {
		return geometry.Rect{}, false
	}
	r := cards[0].Rect()
	for _, c := range cards[1:] {
		r = r.Union(c.Rect())
	}
	for _, conn := range b.Connections.Connections() {
		if cv, ok := b.Connections.Curve(conn.ID); ok {
			r = r.Union(cv.Bounds())
		}
	}
	return r, true
}

var monoFont = sync.OnceValues(func() (*truetype.Font, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
})

// loadFace builds a face from the font parsed on first use. Faces keep
// glyph caches and are not shared between renders.
func loadFace(size float64) (font.Face, error) {
	f, err := monoFont()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

func drawConnector(dc *gg.Context, cv geometry.Curve, selected bool) {
	col, width := color.Color(connectorColor), 2.0
	if selected {
		col, width = selectedColor, 3
	}
	dc.SetColor(col)
	dc.SetLineWidth(width)
	dc.MoveTo(cv.Start.X, cv.Start.Y)
	dc.CubicTo(cv.C1.X, cv.C1.Y, cv.C2.X, cv.C2.Y, cv.End.X, cv.End.Y)
	dc.Stroke()

	from := cv.C2
	if from == cv.End {
		from = cv.Start
	}
	left, right := geometry.ArrowHead(from, cv.End, 10)
	dc.MoveTo(cv.End.X, cv.End.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	dc.Fill()
}

func drawCard(dc *gg.Context, c domain.Card, selected bool) {
	r := c.Rect()
	fill := kindFill[c.Kind]
	if custom, ok := parseHex(c.Content.Color); ok {
		fill = custom
	}
	if fill == nil {
		fill = color.White
	}
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 6)
	dc.SetColor(fill)
	dc.FillPreserve()
	if selected {
		dc.SetColor(selectedColor)
		dc.SetLineWidth(3)
	} else {
		dc.SetColor(edgeColor)
		dc.SetLineWidth(1)
	}
	dc.Stroke()

	dc.SetColor(color.Black)
	title := cardTitle(c)
	if title != "" {
		dc.DrawStringWrapped(title, r.X+8, r.Y+8+dc.FontHeight(), 0, 0, r.W-16, 1.3, gg.AlignLeft)
	}
	if d := c.Content.Duration(); c.Kind == domain.CardKindDrill && d > 0 {
		dc.DrawStringAnchored(strconv.Itoa(d)+" min", r.X+r.W-8, r.Y+r.H-8, 1, 0)
	}
}

func cardTitle(c domain.Card) string {
	if c.Content.Title != "" {
		return c.Content.Title
	}
	if c.Kind == domain.CardKindText || c.Kind == domain.CardKindNote {
		line, _, _ := strings.Cut(c.Content.Text, "\n")
		return line
	}
	return string(c.Kind)
}

// parseHex accepts #rgb and #rrggbb.
func parseHex(s string) (color.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}
