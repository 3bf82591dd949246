package hittest

import (
	"math"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/svgdoc"
	"floorplan-editor/internal/editor/viewport"
)

// DefaultProximityRadius - радиус поиска ближайшего маркера, в пикселях экрана.
const DefaultProximityRadius = 20.0

// DOM - стратегия vector backend: идентичность берется из маркеров документа.
type DOM struct {
	view   *viewport.Vector
	src    Source
	Radius float64
	Tags   svgdoc.KindTags
}

func NewDOM(view *viewport.Vector, src Source) *DOM {
	return &DOM{view: view, src: src, Radius: DefaultProximityRadius, Tags: svgdoc.DefaultKindTags}
}

func (d *DOM) Hit(ev viewport.PointerEvent, _ models.Point) (string, bool) {
	doc := d.view.Document()
	if doc == nil {
		return "", false
	}

	elements := d.src.Elements()
	svgdoc.AssignByPosition(doc, elements, d.Tags)

	if id, ok := d.walkUp(doc, ev.Target); ok && known(elements, id) {
		return id, true
	}
	return d.nearest(doc, elements, ev)
}

// walkUp поднимается от цели события к корню документа в поисках маркера.
func (d *DOM) walkUp(doc *svgdoc.Document, target *svgdoc.Node) (string, bool) {
	if target == nil || !doc.Contains(target) {
		return "", false
	}
	for n := target; n != nil; n = n.Parent {
		if id, ok := n.Identity(); ok {
			return id, true
		}
		if n == doc.Root {
			break
		}
	}
	return "", false
}

// nearest - запасной вариант: ближайший центр маркированного узла в экранных пикселях.
func (d *DOM) nearest(doc *svgdoc.Document, elements []models.Element, ev viewport.PointerEvent) (string, bool) {
	best := ""
	bestDist := d.Radius

	for _, n := range doc.Marked() {
		id, _ := n.Identity()
		if !known(elements, id) {
			continue
		}
		box, ok := n.BBox()
		if !ok {
			continue
		}
		c := box.Center()
		sx, sy, ok := d.view.ToScreen(models.Point{c.X, c.Y})
		if !ok {
			continue
		}
		if dist := math.Hypot(sx-ev.ClientX, sy-ev.ClientY); dist <= bestDist {
			best, bestDist = id, dist
		}
	}

	return best, best != ""
}

func known(elements []models.Element, id string) bool {
	for _, el := range elements {
		if el.ID == id {
			return true
		}
	}
	return false
}
