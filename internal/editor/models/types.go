package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================
// Element kinds
// ============================================================

type Kind string

const (
	KindRoom     Kind = "room"
	KindWall     Kind = "wall"
	KindDoor     Kind = "door"
	KindWindow   Kind = "window"
	KindBed      Kind = "bed"
	KindTable    Kind = "table"
	KindChair    Kind = "chair"
	KindStairs   Kind = "stairs"
	KindElevator Kind = "elevator"
)

// Kinds перечисляет все поддерживаемые виды элементов в порядке приоритета hit-test.
var Kinds = []Kind{
	KindRoom, KindWall, KindDoor, KindWindow,
	KindBed, KindTable, KindChair, KindStairs, KindElevator,
}

// ParseKind принимает тег вида в любом регистре ("Room", "room").
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown element kind %q", s)
}

func (k Kind) Valid() bool {
	parsed, err := ParseKind(string(k))
	return err == nil && parsed == k
}

// IsFurnishing - мебель и прочие объекты интерьера.
func (k Kind) IsFurnishing() bool {
	switch k {
	case KindBed, KindTable, KindChair, KindStairs, KindElevator:
		return true
	}
	return false
}

// IsPointLike - элементы с якорем position и размерами width/height.
func (k Kind) IsPointLike() bool {
	return k == KindDoor || k == KindWindow || k.IsFurnishing()
}

// Title возвращает имя блока в исходном тексте: "room" -> "Room".
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	b := []byte(k)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// ============================================================
// Geometry primitives
// ============================================================

// Point - логическая точка [x, y]; в JSON сериализуется как массив.
type Point [2]float64

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }

func (p Point) Add(dx, dy float64) Point {
	return Point{p[0] + dx, p[1] + dy}
}

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

func (d Direction) Valid() bool {
	switch d {
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		return true
	}
	return false
}

// ============================================================
// Floor plan elements
// ============================================================

// Element - элемент плана. Набор заполненных полей зависит от Type.
type Element struct {
	ID   string
	Type Kind

	// room
	Position *Point
	Size     *Point
	Label    *string

	// wall
	Start *Point
	End   *Point

	// door, window, furnishings
	Width     *float64
	Height    *float64
	Direction *Direction

	// Extra хранит нетипизированные поля (например, wall у проемов).
	Extra map[string]any
}

// Clone делает глубокую копию, чтобы черновик не делил указатели с моделью.
func (e Element) Clone() Element {
	out := Element{ID: e.ID, Type: e.Type}
	out.Position = clonePoint(e.Position)
	out.Size = clonePoint(e.Size)
	out.Start = clonePoint(e.Start)
	out.End = clonePoint(e.End)
	if e.Label != nil {
		v := *e.Label
		out.Label = &v
	}
	if e.Width != nil {
		v := *e.Width
		out.Width = &v
	}
	if e.Height != nil {
		v := *e.Height
		out.Height = &v
	}
	if e.Direction != nil {
		v := *e.Direction
		out.Direction = &v
	}
	if len(e.Extra) > 0 {
		out.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ExtraString возвращает строковое доп. поле (wall и т.п.).
func (e Element) ExtraString(key string) (string, bool) {
	v, ok := e.Extra[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FloorPlanData - упорядоченный список элементов и ссылка на последний рендер.
type FloorPlanData struct {
	Elements  []Element `json:"elements"`
	RenderRef string    `json:"svg_url,omitempty"`
}

// Clone копирует план целиком.
func (d FloorPlanData) Clone() FloorPlanData {
	out := FloorPlanData{RenderRef: d.RenderRef}
	if d.Elements != nil {
		out.Elements = make([]Element, len(d.Elements))
		for i, el := range d.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	return out
}

// ============================================================
// JSON wire format
// ============================================================

type elementWire struct {
	ID        string     `json:"id"`
	Type      Kind       `json:"type"`
	Position  *Point     `json:"position,omitempty"`
	Size      *Point     `json:"size,omitempty"`
	Label     *string    `json:"label,omitempty"`
	Start     *Point     `json:"start,omitempty"`
	End       *Point     `json:"end,omitempty"`
	Width     *float64   `json:"width,omitempty"`
	Height    *float64   `json:"height,omitempty"`
	Direction *Direction `json:"direction,omitempty"`
}

var wireKeys = map[string]struct{}{
	"id": {}, "type": {}, "position": {}, "size": {}, "label": {},
	"start": {}, "end": {}, "width": {}, "height": {}, "direction": {},
}

// IsTypedField сообщает, относится ли ключ к типизированным полям элемента.
func IsTypedField(key string) bool {
	_, ok := wireKeys[key]
	return ok
}

func (e Element) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(elementWire{
		ID: e.ID, Type: e.Type,
		Position: e.Position, Size: e.Size, Label: e.Label,
		Start: e.Start, End: e.End,
		Width: e.Width, Height: e.Height, Direction: e.Direction,
	})
	if err != nil || len(e.Extra) == 0 {
		return base, err
	}

	merged := map[string]any{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, typed := merged[k]; typed || IsTypedField(k) {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var w elementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Element{
		ID: w.ID, Type: Kind(strings.ToLower(string(w.Type))),
		Position: w.Position, Size: w.Size, Label: w.Label,
		Start: w.Start, End: w.End,
		Width: w.Width, Height: w.Height, Direction: w.Direction,
	}

	for k, msg := range raw {
		if IsTypedField(k) {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if v == nil {
			continue
		}
		if e.Extra == nil {
			e.Extra = map[string]any{}
		}
		e.Extra[k] = v
	}
	return nil
}
