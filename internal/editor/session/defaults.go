package session

import (
	"fmt"

	"floorplan-editor/internal/editor/models"
)

// footprint - размеры по умолчанию для точечных элементов (width, height).
var footprint = map[models.Kind][2]float64{
	models.KindDoor:     {1, 0.2},
	models.KindWindow:   {1.5, 0.2},
	models.KindBed:      {2, 1.6},
	models.KindTable:    {1.2, 0.8},
	models.KindChair:    {0.5, 0.5},
	models.KindStairs:   {1, 3},
	models.KindElevator: {1.5, 1.5},
}

// DefaultElement создает элемент вида kind с геометрией по умолчанию, привязанной к точке p.
// id не заполняется, его назначает Plan.Insert.
func DefaultElement(kind models.Kind, p models.Point) (models.Element, error) {
	el := models.Element{Type: kind}
	at := p

	switch kind {
	case models.KindRoom:
		size := models.Point{5, 4}
		el.Position, el.Size = &at, &size
	case models.KindWall:
		end := p.Add(5, 0)
		el.Start, el.End = &at, &end
	default:
		fp, ok := footprint[kind]
		if !ok {
			return models.Element{}, fmt.Errorf("no defaults for kind %q", kind)
		}
		w, h := fp[0], fp[1]
		el.Position, el.Width, el.Height = &at, &w, &h
		if kind == models.KindDoor {
			dir := models.DirectionUp
			el.Direction = &dir
		}
	}
	return el, nil
}
