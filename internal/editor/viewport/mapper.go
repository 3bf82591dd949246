package viewport

import (
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/svgdoc"
)

// ============================================================
// Coordinate Mapper
// ============================================================

type Backend string

const (
	BackendRaster Backend = "raster"
	BackendVector Backend = "vector"
)

// ZoomStep - множитель одного шага zoom in/out.
const ZoomStep = 1.2

// Rect - прямоугольник в пикселях окна (client coordinates).
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// PointerEvent - указатель в пикселях окна. Target - узел векторного документа
// под курсором (только для vector backend, может быть nil).
type PointerEvent struct {
	ClientX float64
	ClientY float64
	Target  *svgdoc.Node
}

// Mapper переводит пиксели окна в логические единицы плана и обратно.
type Mapper interface {
	Backend() Backend
	// ToLogical возвращает false, если поверхность не смонтирована.
	ToLogical(ev PointerEvent) (models.Point, bool)
	// ToScreen - обратное преобразование в пиксели окна.
	ToScreen(p models.Point) (x, y float64, ok bool)
	// CurrentScale - пикселей окна на одну логическую единицу.
	CurrentScale() float64
	Zoom(factor float64)
	ResetZoom()
}
