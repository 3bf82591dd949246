package hittest

import (
	"math"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/viewport"
)

// ============================================================
// Hit-Tester
// ============================================================

// Tester определяет id элемента под указателем. ok=false - ничего не выбрано.
type Tester interface {
	Hit(ev viewport.PointerEvent, p models.Point) (string, bool)
}

// Source отдает текущие элементы модели.
type Source interface {
	Elements() []models.Element
}

// For выбирает стратегию по смонтированному backend.
func For(m viewport.Mapper, src Source) Tester {
	if v, ok := m.(*viewport.Vector); ok {
		return NewDOM(v, src)
	}
	return NewGeometric(src)
}

// ============================================================
// Geometry helpers
// ============================================================

// DistanceToSegment - расстояние от точки до отрезка ab.
func DistanceToSegment(p, a, b models.Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return math.Hypot(p.X()-a.X(), p.Y()-a.Y())
	}

	// Проекция точки на отрезок
	t := ((p.X()-a.X())*dx + (p.Y()-a.Y())*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	projX := a.X() + t*dx
	projY := a.Y() + t*dy
	return math.Hypot(p.X()-projX, p.Y()-projY)
}
