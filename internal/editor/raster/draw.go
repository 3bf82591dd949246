package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/viewport"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ============================================================
// Palette
// ============================================================

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorGrid       = color.RGBA{229, 229, 229, 255}
	colorRoomFill   = color.NRGBA{200, 230, 255, 77}
	colorRoomStroke = color.RGBA{170, 170, 170, 255}
	colorLabel      = color.RGBA{102, 102, 102, 255}
	colorWall       = color.RGBA{51, 51, 51, 255}
	colorDoorFill   = color.RGBA{210, 180, 140, 255}
	colorDoorStroke = color.RGBA{139, 69, 19, 255}
	colorWindowFill = color.NRGBA{135, 206, 235, 128}
	colorWindow     = color.RGBA{135, 206, 235, 255}
	colorFurnFill   = color.RGBA{240, 240, 240, 255}
	colorFurnStroke = color.RGBA{120, 120, 120, 255}
	colorSelected   = color.RGBA{59, 130, 246, 255}
	colorHover      = color.NRGBA{59, 130, 246, 110}
)

const (
	wallWidth    = 8.0
	openingDepth = 10.0 // px, если у проема нет height
	labelSize    = 14.0
)

// Options - что подсветить на картинке.
type Options struct {
	Selected string
	Hover    string
	Grid     bool
}

// canvas - поверхность плюс преобразование координат того же Raster,
// что используется для hit-test.
type canvas struct {
	img  *image.RGBA
	view *viewport.Raster
	face font.Face
}

// Draw рисует модель на новой поверхности размером view.SurfaceSize().
// Перед вызовом view должен быть подогнан под модель (Fit).
func Draw(view *viewport.Raster, elements []models.Element, opts Options) (*image.RGBA, error) {
	w, h := view.SurfaceSize()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	face, err := labelFace()
	if err != nil {
		return nil, err
	}
	c := &canvas{img: img, view: view, face: face}

	if opts.Grid {
		c.grid(viewport.Extent(elements))
	}

	for _, el := range elements {
		c.element(el)
	}

	// подсветка поверх всего остального
	for _, el := range elements {
		switch el.ID {
		case opts.Selected:
			c.outline(el, colorSelected)
		case opts.Hover:
			c.outline(el, colorHover)
		}
	}

	return img, nil
}

// EncodePNG кодирует поверхность в PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func labelFace() (font.Face, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    labelSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// ============================================================
// Elements
// ============================================================

func (c *canvas) element(el models.Element) {
	switch {
	case el.Type == models.KindRoom:
		if el.Position == nil || el.Size == nil {
			return
		}
		x0, y0, x1, y1 := c.rect(*el.Position, el.Position.Add(el.Size.X(), el.Size.Y()))
		c.fillRect(x0, y0, x1, y1, colorRoomFill)
		c.strokeRect(x0, y0, x1, y1, 1, colorRoomStroke)
		label := el.ID
		if el.Label != nil && *el.Label != "" {
			label = *el.Label
		}
		if label == "" {
			label = "Room"
		}
		c.text((x0+x1)/2, (y0+y1)/2, label, colorLabel)

	case el.Type == models.KindWall:
		if el.Start == nil || el.End == nil {
			return
		}
		x0, y0 := c.view.ToSurface(*el.Start)
		x1, y1 := c.view.ToSurface(*el.End)
		c.line(x0, y0, x1, y1, wallWidth, colorWall)

	case el.Type == models.KindDoor:
		c.opening(el, colorDoorFill, colorDoorStroke)

	case el.Type == models.KindWindow:
		c.opening(el, colorWindowFill, colorWindow)

	case el.Type.IsFurnishing():
		c.opening(el, colorFurnFill, colorFurnStroke)
	}
}

// opening рисует точечный элемент прямоугольником width × height вокруг position.
func (c *canvas) opening(el models.Element, fill, stroke color.Color) {
	x0, y0, x1, y1, ok := c.footprint(el)
	if !ok {
		return
	}
	c.fillRect(x0, y0, x1, y1, fill)
	c.strokeRect(x0, y0, x1, y1, 2, stroke)
}

func (c *canvas) footprint(el models.Element) (x0, y0, x1, y1 float64, ok bool) {
	if el.Position == nil || el.Width == nil {
		return 0, 0, 0, 0, false
	}
	cx, cy := c.view.ToSurface(*el.Position)
	scale := c.view.CurrentScale()
	halfW := math.Abs(*el.Width) * scale / 2
	halfH := openingDepth / 2
	if el.Height != nil {
		halfH = math.Abs(*el.Height) * scale / 2
	}
	return cx - halfW, cy - halfH, cx + halfW, cy + halfH, true
}

func (c *canvas) outline(el models.Element, col color.Color) {
	switch el.Type {
	case models.KindRoom:
		if el.Position != nil && el.Size != nil {
			x0, y0, x1, y1 := c.rect(*el.Position, el.Position.Add(el.Size.X(), el.Size.Y()))
			c.strokeRect(x0, y0, x1, y1, 3, col)
		}
	case models.KindWall:
		if el.Start != nil && el.End != nil {
			x0, y0 := c.view.ToSurface(*el.Start)
			x1, y1 := c.view.ToSurface(*el.End)
			c.line(x0, y0, x1, y1, wallWidth+4, col)
		}
	default:
		if x0, y0, x1, y1, ok := c.footprint(el); ok {
			c.strokeRect(x0-2, y0-2, x1+2, y1+2, 3, col)
		}
	}
}

func (c *canvas) grid(maxX, maxY float64) {
	for y := 0.0; y <= maxY; y++ {
		x0, sy := c.view.ToSurface(models.Point{0, y})
		x1, _ := c.view.ToSurface(models.Point{maxX, y})
		c.line(x0, sy, x1, sy, 0.5, colorGrid)
	}
	for x := 0.0; x <= maxX; x++ {
		sx, y0 := c.view.ToSurface(models.Point{x, 0})
		_, y1 := c.view.ToSurface(models.Point{x, maxY})
		c.line(sx, y0, sx, y1, 0.5, colorGrid)
	}
}

// ============================================================
// Primitives
// ============================================================

// rect переводит два логических угла в нормализованный прямоугольник поверхности.
func (c *canvas) rect(a, b models.Point) (x0, y0, x1, y1 float64) {
	ax, ay := c.view.ToSurface(a)
	bx, by := c.view.ToSurface(b)
	return math.Min(ax, bx), math.Min(ay, by), math.Max(ax, bx), math.Max(ay, by)
}

func (c *canvas) fill(col color.Color, pts ...[2]float64) {
	if len(pts) < 3 {
		return
	}
	b := c.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	z.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]), float32(p[1]))
	}
	z.ClosePath()
	z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) fillRect(x0, y0, x1, y1 float64, col color.Color) {
	c.fill(col, [2]float64{x0, y0}, [2]float64{x1, y0}, [2]float64{x1, y1}, [2]float64{x0, y1})
}

func (c *canvas) strokeRect(x0, y0, x1, y1, width float64, col color.Color) {
	c.line(x0, y0, x1, y0, width, col)
	c.line(x1, y0, x1, y1, width, col)
	c.line(x1, y1, x0, y1, width, col)
	c.line(x0, y1, x0, y0, width, col)
}

// line рисует отрезок толщиной width как четырехугольник вдоль нормали.
func (c *canvas) line(x0, y0, x1, y1, width float64, col color.Color) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.fill(col,
		[2]float64{x0 + nx, y0 + ny},
		[2]float64{x1 + nx, y1 + ny},
		[2]float64{x1 - nx, y1 - ny},
		[2]float64{x0 - nx, y0 - ny},
	)
}

func (c *canvas) text(cx, cy float64, s string, col color.Color) {
	width := font.MeasureString(c.face, s)
	ascent := c.face.Metrics().Ascent
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot: fixed.Point26_6{
			X: fixed.I(int(cx)) - width/2,
			Y: fixed.I(int(cy)) + ascent/3,
		},
	}
	d.DrawString(s)
}
