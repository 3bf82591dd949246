package viewport

import (
	"math"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Raster backend
// ============================================================

const (
	DefaultRasterScale   = 40.0 // pixels per logical unit
	DefaultRasterPadding = 50.0
)

// Raster - модель рисуется напрямую на пиксельной поверхности.
// Ось Y поверхности направлена вниз, логическая - вверх.
type Raster struct {
	baseScale float64
	scale     float64
	padding   float64

	left, top float64
	extentX   float64
	extentY   float64
	mounted   bool
}

func NewRaster(scale float64) *Raster {
	if scale <= 0 {
		scale = DefaultRasterScale
	}
	return &Raster{baseScale: scale, scale: scale, padding: DefaultRasterPadding}
}

func (r *Raster) Backend() Backend { return BackendRaster }

// Mount размещает поверхность на экране в точке (left, top).
func (r *Raster) Mount(left, top float64) {
	r.left, r.top = left, top
	r.mounted = true
}

func (r *Raster) Unmount() { r.mounted = false }

func (r *Raster) Mounted() bool { return r.mounted }

// Fit пересчитывает размер поверхности по габаритам стен и комнат.
func (r *Raster) Fit(elements []models.Element) {
	r.extentX, r.extentY = Extent(elements)
}

// Extent - максимальные логические X и Y среди стен и комнат (не меньше 0).
func Extent(elements []models.Element) (float64, float64) {
	var maxX, maxY float64
	grow := func(x, y float64) {
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, el := range elements {
		switch el.Type {
		case models.KindWall:
			if el.Start != nil {
				grow(el.Start.X(), el.Start.Y())
			}
			if el.End != nil {
				grow(el.End.X(), el.End.Y())
			}
		case models.KindRoom:
			if el.Position != nil && el.Size != nil {
				grow(el.Position.X()+el.Size.X(), el.Position.Y()+el.Size.Y())
			}
		}
	}
	return maxX, maxY
}

// SurfaceSize - размер поверхности в пикселях при текущем масштабе.
func (r *Raster) SurfaceSize() (int, int) {
	w := r.extentX*r.scale + 2*r.padding
	h := r.extentY*r.scale + 2*r.padding
	return int(math.Ceil(w)), int(math.Ceil(h))
}

// Bounds - экранный прямоугольник поверхности.
func (r *Raster) Bounds() Rect {
	w, h := r.SurfaceSize()
	return Rect{Left: r.left, Top: r.top, Width: float64(w), Height: float64(h)}
}

func (r *Raster) ToLogical(ev PointerEvent) (models.Point, bool) {
	if !r.mounted {
		return models.Point{}, false
	}
	sx := ev.ClientX - r.left
	sy := ev.ClientY - r.top
	return r.FromSurface(sx, sy), true
}

func (r *Raster) ToScreen(p models.Point) (float64, float64, bool) {
	if !r.mounted {
		return 0, 0, false
	}
	sx, sy := r.ToSurface(p)
	return sx + r.left, sy + r.top, true
}

// ToSurface - логическая точка в пиксели поверхности (с переворотом Y).
// Используется и при рисовании, и при hit-test, чтобы переворот был один.
func (r *Raster) ToSurface(p models.Point) (float64, float64) {
	_, h := r.SurfaceSize()
	return r.padding + p.X()*r.scale, float64(h) - r.padding - p.Y()*r.scale
}

// FromSurface - обратное к ToSurface.
func (r *Raster) FromSurface(sx, sy float64) models.Point {
	_, h := r.SurfaceSize()
	return models.Point{(sx - r.padding) / r.scale, (float64(h) - sy - r.padding) / r.scale}
}

func (r *Raster) CurrentScale() float64 { return r.scale }

func (r *Raster) Zoom(factor float64) {
	if factor > 0 {
		r.scale *= factor
	}
}

func (r *Raster) ResetZoom() { r.scale = r.baseScale }
