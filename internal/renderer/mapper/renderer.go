package mapper

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Renderer
// ============================================================

const (
	DefaultScale   = 10.0 // pixels per logical unit
	DefaultPadding = 1.0  // logical units around the plan
)

// Renderer собирает SVG из элементов плана. viewBox задается в логических единицах,
// width/height в пикселях (viewBox × Scale). Ось Y документа направлена вниз.
type Renderer struct {
	Scale   float64
	Padding float64
	// Markers добавляет data-id к узлу каждого элемента.
	Markers bool
}

func NewRenderer(scale float64, markers bool) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Renderer{Scale: scale, Padding: DefaultPadding, Markers: markers}
}

// Render рисует элементы слоями: комнаты, стены, проемы, мебель; внутри слоя
// сохраняется порядок модели.
func (r *Renderer) Render(elements []models.Element) (string, error) {
	minX, minY, maxX, maxY := r.bounds(elements)
	vbW, vbH := maxX-minX, maxY-minY

	var out []string
	out = append(out, r.renderRooms(elements)...)
	out = append(out, r.renderWalls(elements)...)
	out = append(out, r.renderOpenings(elements)...)
	out = append(out, r.renderFurnishings(elements)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s" style="background:#fff">`,
		formatFloat(vbW*r.Scale), formatFloat(vbH*r.Scale),
		formatFloat(minX), formatFloat(minY), formatFloat(vbW), formatFloat(vbH)))
	builder.WriteString("\n")

	for _, elem := range out {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Sizing
// ============================================================

func (r *Renderer) bounds(elements []models.Element) (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	grow := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	for _, el := range elements {
		switch {
		case el.Type == models.KindRoom && el.Position != nil && el.Size != nil:
			grow(el.Position.X(), el.Position.Y())
			grow(el.Position.X()+el.Size.X(), el.Position.Y()+el.Size.Y())
		case el.Type == models.KindWall && el.Start != nil && el.End != nil:
			grow(el.Start.X(), el.Start.Y())
			grow(el.End.X(), el.End.Y())
		case el.Type.IsPointLike() && el.Position != nil:
			w, h := footprint(el)
			grow(el.Position.X()-w/2, el.Position.Y()-h/2)
			grow(el.Position.X()+w/2, el.Position.Y()+h/2)
		}
	}

	if minX == math.MaxFloat64 {
		return 0, 0, 10, 10
	}
	return minX - r.Padding, minY - r.Padding, maxX + r.Padding, maxY + r.Padding
}

// footprint - ширина и глубина точечного элемента.
func footprint(el models.Element) (float64, float64) {
	w, h := 1.0, 0.2
	if el.Type.IsFurnishing() {
		h = 1
	}
	if el.Width != nil {
		w = math.Abs(*el.Width)
	}
	if el.Height != nil {
		h = math.Abs(*el.Height)
	}
	return w, h
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) marker(el models.Element) string {
	if !r.Markers || el.ID == "" {
		return ""
	}
	return fmt.Sprintf(` data-id="%s"`, html.EscapeString(el.ID))
}

func (r *Renderer) renderRooms(elements []models.Element) []string {
	var out []string

	for _, el := range elements {
		if el.Type != models.KindRoom || el.Position == nil || el.Size == nil {
			continue
		}
		x := math.Min(el.Position.X(), el.Position.X()+el.Size.X())
		y := math.Min(el.Position.Y(), el.Position.Y()+el.Size.Y())
		w, h := math.Abs(el.Size.X()), math.Abs(el.Size.Y())

		out = append(out, fmt.Sprintf(`<rect%s x="%s" y="%s" width="%s" height="%s" fill="#e8f4ff" stroke="#888" stroke-width="0.05" />`,
			r.marker(el), formatFloat(x), formatFloat(y), formatFloat(w), formatFloat(h)))

		label := el.ID
		if el.Label != nil && *el.Label != "" {
			label = *el.Label
		}
		if label != "" {
			out = append(out, fmt.Sprintf(`<text x="%s" y="%s" font-size="0.5" text-anchor="middle" fill="#666">%s</text>`,
				formatFloat(x+w/2), formatFloat(y+h/2), html.EscapeString(label)))
		}
	}

	return out
}

func (r *Renderer) renderWalls(elements []models.Element) []string {
	var out []string

	for _, el := range elements {
		if el.Type != models.KindWall || el.Start == nil || el.End == nil {
			continue
		}
		out = append(out, fmt.Sprintf(`<line%s x1="%s" y1="%s" x2="%s" y2="%s" stroke="#333" stroke-width="0.3" />`,
			r.marker(el),
			formatFloat(el.Start.X()), formatFloat(el.Start.Y()),
			formatFloat(el.End.X()), formatFloat(el.End.Y())))
	}

	return out
}

func (r *Renderer) renderOpenings(elements []models.Element) []string {
	var out []string

	for _, el := range elements {
		if el.Position == nil {
			continue
		}
		w, h := footprint(el)
		x := el.Position.X() - w/2
		y := el.Position.Y() - h/2

		switch el.Type {
		case models.KindDoor:
			// проем плюс дуга открывания
			var d strings.Builder
			d.WriteString("M " + formatFloat(x) + " " + formatFloat(y))
			d.WriteString(" H " + formatFloat(x+w))
			d.WriteString(" V " + formatFloat(y+h))
			d.WriteString(" H " + formatFloat(x))
			d.WriteString(" Z")
			d.WriteString(swing(el, x, y, w, h))

			out = append(out, fmt.Sprintf(`<path%s d="%s" fill="#d2b48c" stroke="#8b4513" stroke-width="0.05" />`,
				r.marker(el), d.String()))

		case models.KindWindow:
			out = append(out, fmt.Sprintf(`<rect%s x="%s" y="%s" width="%s" height="%s" fill="#87ceeb" fill-opacity="0.5" stroke="#87ceeb" stroke-width="0.05" />`,
				r.marker(el), formatFloat(x), formatFloat(y), formatFloat(w), formatFloat(h)))
		}
	}

	return out
}

// swing - дуга открывания двери в сторону direction.
func swing(el models.Element, x, y, w, h float64) string {
	if el.Direction == nil {
		return ""
	}
	radius := formatFloat(w)
	switch *el.Direction {
	case models.DirectionUp:
		return fmt.Sprintf(" M %s %s A %s %s 0 0 1 %s %s", formatFloat(x), formatFloat(y), radius, radius, formatFloat(x+w), formatFloat(y-w))
	case models.DirectionDown:
		return fmt.Sprintf(" M %s %s A %s %s 0 0 0 %s %s", formatFloat(x), formatFloat(y+h), radius, radius, formatFloat(x+w), formatFloat(y+h+w))
	case models.DirectionLeft:
		return fmt.Sprintf(" M %s %s A %s %s 0 0 0 %s %s", formatFloat(x), formatFloat(y), radius, radius, formatFloat(x-h), formatFloat(y+h))
	case models.DirectionRight:
		return fmt.Sprintf(" M %s %s A %s %s 0 0 1 %s %s", formatFloat(x+w), formatFloat(y), radius, radius, formatFloat(x+w+h), formatFloat(y+h))
	}
	return ""
}

func (r *Renderer) renderFurnishings(elements []models.Element) []string {
	var out []string

	for _, el := range elements {
		if !el.Type.IsFurnishing() || el.Position == nil {
			continue
		}
		w, h := footprint(el)
		x := el.Position.X() - w/2
		y := el.Position.Y() - h/2

		out = append(out, fmt.Sprintf(`<g%s><rect x="%s" y="%s" width="%s" height="%s" fill="#f0f0f0" stroke="#777" stroke-width="0.05" /><text x="%s" y="%s" font-size="0.3" text-anchor="middle">%s</text></g>`,
			r.marker(el),
			formatFloat(x), formatFloat(y), formatFloat(w), formatFloat(h),
			formatFloat(el.Position.X()), formatFloat(el.Position.Y()), el.Type.Title()))
	}

	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	if val == 0 {
		return "0"
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}
