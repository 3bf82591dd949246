package viewport

import (
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/svgdoc"
)

// ============================================================
// Vector-document backend
// ============================================================

// FallbackPixelsPerUnit используется, только если у документа нет viewBox.
const FallbackPixelsPerUnit = 10.0

// Vector - внешний документ с собственной системой координат (viewBox),
// показанный с CSS-зумом. Экранный прямоугольник либо задается хостом (SetBox),
// либо вычисляется как собственный размер документа × zoom.
type Vector struct {
	doc      *svgdoc.Document
	left     float64
	top      float64
	box      Rect
	fixedBox bool
	zoom     float64
}

func NewVector() *Vector {
	return &Vector{zoom: 1}
}

func (v *Vector) Backend() Backend { return BackendVector }

// Mount встраивает документ в точку (left, top).
func (v *Vector) Mount(doc *svgdoc.Document, left, top float64) {
	v.doc = doc
	v.left, v.top = left, top
}

func (v *Vector) Unmount() { v.doc = nil }

// Replace меняет документ, сохраняя положение и зум.
func (v *Vector) Replace(doc *svgdoc.Document) { v.doc = doc }

func (v *Vector) Document() *svgdoc.Document { return v.doc }

// SetBox фиксирует экранный прямоугольник, измеренный хостом.
func (v *Vector) SetBox(r Rect) {
	v.box = r
	v.fixedBox = true
}

// Box - текущий экранный прямоугольник документа.
func (v *Vector) Box() Rect {
	if v.fixedBox {
		return v.box
	}
	if v.doc == nil {
		return Rect{}
	}
	w, h := v.doc.PixelSize()
	return Rect{Left: v.left, Top: v.top, Width: w * v.zoom, Height: h * v.zoom}
}

func (v *Vector) ToLogical(ev PointerEvent) (models.Point, bool) {
	if v.doc == nil {
		return models.Point{}, false
	}
	box := v.Box()
	relX := ev.ClientX - box.Left
	relY := ev.ClientY - box.Top

	if vb, ok := v.doc.ViewBox(); ok && !box.Empty() {
		return models.Point{
			vb.MinX + relX*vb.Width/box.Width,
			vb.MinY + relY*vb.Height/box.Height,
		}, true
	}

	s := v.fallbackScale()
	return models.Point{relX / s, relY / s}, true
}

func (v *Vector) ToScreen(p models.Point) (float64, float64, bool) {
	if v.doc == nil {
		return 0, 0, false
	}
	box := v.Box()

	if vb, ok := v.doc.ViewBox(); ok && !box.Empty() {
		return box.Left + (p.X()-vb.MinX)*box.Width/vb.Width,
			box.Top + (p.Y()-vb.MinY)*box.Height/vb.Height, true
	}

	s := v.fallbackScale()
	return box.Left + p.X()*s, box.Top + p.Y()*s, true
}

func (v *Vector) CurrentScale() float64 {
	if v.doc != nil {
		box := v.Box()
		if vb, ok := v.doc.ViewBox(); ok && !box.Empty() {
			return box.Width / vb.Width
		}
	}
	return v.fallbackScale()
}

func (v *Vector) fallbackScale() float64 {
	return FallbackPixelsPerUnit * v.zoom
}

// Zoom меняет CSS-зум; зафиксированный хостом прямоугольник масштабируется от левого верхнего угла.
func (v *Vector) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	v.zoom *= factor
	if v.fixedBox {
		v.box.Width *= factor
		v.box.Height *= factor
	}
}

func (v *Vector) ResetZoom() {
	if v.fixedBox && v.zoom != 0 {
		v.box.Width /= v.zoom
		v.box.Height /= v.zoom
	}
	v.zoom = 1
}

func (v *Vector) ZoomFactor() float64 { return v.zoom }
