package dsl

import (
	"errors"
	"fmt"
	"strings"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Blocks -> elements
// ============================================================

// Compile разбирает исходный текст и строит элементы плана в порядке блоков.
func Compile(src string) ([]models.Element, error) {
	blocks, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Build(blocks)
}

// Build переводит блоки в элементы. Пропущенный id заполняется как <kind>_<index>.
func Build(blocks []Block) ([]models.Element, error) {
	elements := make([]models.Element, 0, len(blocks))
	seen := map[string]struct{}{}
	var errs []error

	// явные id занимаются до генерации, чтобы сгенерированный не отнял чужой
	explicit := map[string]struct{}{}
	for _, b := range blocks {
		if v, ok := b.Get("id"); ok {
			if id, ok := v.text(); ok && id != "" {
				explicit[id] = struct{}{}
			}
		}
	}

	for i, b := range blocks {
		el, err := buildElement(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if el.ID == "" {
			el.ID = generatedID(el.Type, i, explicit, seen)
		}
		if _, dup := seen[el.ID]; dup {
			errs = append(errs, &SyntaxError{Line: b.Line, Col: b.Col, Msg: fmt.Sprintf("duplicate id %q", el.ID)})
			continue
		}
		seen[el.ID] = struct{}{}
		elements = append(elements, el)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return elements, nil
}

// generatedID - "<kind>_<index>", при занятости с суффиксом _2, _3...
func generatedID(kind models.Kind, index int, explicit, seen map[string]struct{}) string {
	base := fmt.Sprintf("%s_%d", kind, index)
	id := base
	for n := 2; ; n++ {
		_, taken := explicit[id]
		_, used := seen[id]
		if !taken && !used {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func buildElement(b Block) (models.Element, error) {
	kind, err := models.ParseKind(b.Kind)
	if err != nil {
		return models.Element{}, &SyntaxError{Line: b.Line, Col: b.Col, Msg: fmt.Sprintf("unknown structure %q", b.Kind)}
	}
	el := models.Element{Type: kind}

	for _, prop := range b.Properties {
		v := prop.Value
		fail := func(want string) error {
			return &SyntaxError{Line: prop.Line, Col: prop.Col, Msg: fmt.Sprintf("%s.%s: expected %s", b.Kind, prop.Name, want)}
		}

		switch prop.Name {
		case "id":
			s, ok := v.text()
			if !ok {
				return models.Element{}, fail("string")
			}
			el.ID = s
		case "label":
			s, ok := v.text()
			if !ok {
				return models.Element{}, fail("string")
			}
			el.Label = &s
		case "position", "size", "start", "end":
			pt, ok := v.point()
			if !ok {
				return models.Element{}, fail("[x, y]")
			}
			switch prop.Name {
			case "position":
				el.Position = &pt
			case "size":
				el.Size = &pt
			case "start":
				el.Start = &pt
			case "end":
				el.End = &pt
			}
		case "width", "height":
			if v.Kind != ValueNumber {
				return models.Element{}, fail("number")
			}
			n := v.Num
			if prop.Name == "width" {
				el.Width = &n
			} else {
				el.Height = &n
			}
		case "direction":
			s, ok := v.text()
			d := models.Direction(strings.ToLower(s))
			if !ok || !d.Valid() {
				return models.Element{}, fail("left, right, up or down")
			}
			el.Direction = &d
		default:
			if el.Extra == nil {
				el.Extra = map[string]any{}
			}
			el.Extra[prop.Name] = v.plain()
		}
	}

	if err := checkGeometry(b, el); err != nil {
		return models.Element{}, err
	}
	return el, nil
}

func checkGeometry(b Block, el models.Element) error {
	missing := func(fields string) error {
		return &SyntaxError{Line: b.Line, Col: b.Col, Msg: fmt.Sprintf("%s needs %s", b.Kind, fields)}
	}
	switch {
	case el.Type == models.KindRoom && (el.Position == nil) != (el.Size == nil):
		return missing("both position and size")
	case el.Type == models.KindWall && (el.Start == nil) != (el.End == nil):
		return missing("both start and end")
	}
	return nil
}

func (v Value) text() (string, bool) {
	if v.Kind == ValueString || v.Kind == ValueIdent {
		return v.Str, true
	}
	return "", false
}

func (v Value) point() (models.Point, bool) {
	if v.Kind != ValueList || len(v.List) != 2 {
		return models.Point{}, false
	}
	if v.List[0].Kind != ValueNumber || v.List[1].Kind != ValueNumber {
		return models.Point{}, false
	}
	return models.Point{v.List[0].Num, v.List[1].Num}, true
}

// plain - значение в виде, пригодном для JSON (Extra).
func (v Value) plain() any {
	switch v.Kind {
	case ValueNumber:
		return v.Num
	case ValueList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.plain()
		}
		return out
	}
	return v.Str
}
