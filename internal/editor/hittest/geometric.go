package hittest

import (
	"math"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/viewport"
)

const (
	// DefaultWallTolerance - допуск попадания в стену, в логических единицах.
	DefaultWallTolerance = 0.5
	// DefaultOpeningDepth - половина "толщины" проема без height.
	DefaultOpeningDepth = 0.3
)

// Geometric - стратегия raster backend: чистая геометрия в логических единицах.
// Порядок: комнаты, стены, точечные элементы; первое совпадение выигрывает.
type Geometric struct {
	src           Source
	WallTolerance float64
	OpeningDepth  float64
}

func NewGeometric(src Source) *Geometric {
	return &Geometric{src: src, WallTolerance: DefaultWallTolerance, OpeningDepth: DefaultOpeningDepth}
}

func (g *Geometric) Hit(_ viewport.PointerEvent, p models.Point) (string, bool) {
	elements := g.src.Elements()

	for _, el := range elements {
		if el.Type == models.KindRoom && roomContains(el, p) {
			return el.ID, true
		}
	}

	for _, el := range elements {
		if el.Type != models.KindWall || el.Start == nil || el.End == nil {
			continue
		}
		if DistanceToSegment(p, *el.Start, *el.End) <= g.WallTolerance {
			return el.ID, true
		}
	}

	for _, el := range elements {
		if el.Type.IsPointLike() && g.pointLikeContains(el, p) {
			return el.ID, true
		}
	}

	return "", false
}

func roomContains(el models.Element, p models.Point) bool {
	if el.Position == nil || el.Size == nil {
		return false
	}
	x, y := el.Position.X(), el.Position.Y()
	w, h := el.Size.X(), el.Size.Y()
	minX, maxX := math.Min(x, x+w), math.Max(x, x+w)
	minY, maxY := math.Min(y, y+h), math.Max(y, y+h)
	return p.X() >= minX && p.X() <= maxX && p.Y() >= minY && p.Y() <= maxY
}

func (g *Geometric) pointLikeContains(el models.Element, p models.Point) bool {
	if el.Position == nil || el.Width == nil {
		return false
	}
	halfW := math.Abs(*el.Width) / 2
	halfH := g.OpeningDepth
	if el.Height != nil {
		halfH = math.Abs(*el.Height) / 2
	}
	return math.Abs(p.X()-el.Position.X()) <= halfW && math.Abs(p.Y()-el.Position.Y()) <= halfH
}
