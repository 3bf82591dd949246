package serializer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Serializer
// ============================================================

const indent = "    "

var (
	identKey = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)
	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]+$`)
)

// Serialize детерминированно переводит модель в исходный текст плана.
// Пустой план дает пустую строку.
func Serialize(data models.FloorPlanData) string {
	return SerializeElements(data.Elements)
}

func SerializeElements(elements []models.Element) string {
	if len(elements) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(elements))
	for _, el := range elements {
		blocks = append(blocks, block(el))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func block(el models.Element) string {
	var b strings.Builder
	b.WriteString(el.Type.Title())
	b.WriteString(" {\n")

	str := func(key, v string) { field(&b, key, strconv.Quote(v)) }
	num := func(key string, v *float64) {
		if v != nil {
			field(&b, key, formatFloat(*v))
		}
	}
	pt := func(key string, p *models.Point) {
		if p != nil {
			field(&b, key, formatPoint(*p))
		}
	}

	if el.ID != "" {
		str("id", el.ID)
	}

	switch {
	case el.Type == models.KindRoom:
		if el.Label != nil {
			str("label", *el.Label)
		}
		pt("position", el.Position)
		pt("size", el.Size)

	case el.Type == models.KindWall:
		pt("start", el.Start)
		pt("end", el.End)

	case el.Type == models.KindDoor || el.Type == models.KindWindow:
		if wall, ok := el.ExtraString("wall"); ok && wall != "" {
			str("wall", wall)
		}
		pt("position", el.Position)
		num("width", el.Width)
		num("height", el.Height)
		if el.Type == models.KindDoor && el.Direction != nil && el.Direction.Valid() {
			str("direction", string(*el.Direction))
		}

	case el.Type.IsFurnishing():
		pt("position", el.Position)
		num("width", el.Width)
		num("height", el.Height)
	}

	extras(&b, el)

	b.WriteString("}")
	return b.String()
}

// extras дописывает скалярные нетипизированные поля в порядке ключей.
// Объекты и bool в исходном тексте не записываются и пропускаются.
func extras(b *strings.Builder, el models.Element) {
	keys := make([]string, 0, len(el.Extra))
	for k := range el.Extra {
		if models.IsTypedField(k) || !identKey.MatchString(k) {
			continue
		}
		if k == "wall" && (el.Type == models.KindDoor || el.Type == models.KindWindow) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v, ok := extraValue(el.Extra[k]); ok {
			field(b, k, v)
		}
	}
}

func extraValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if hexColor.MatchString(t) {
			return t, true
		}
		return strconv.Quote(t), true
	case float64:
		return formatFloat(t), true
	case int:
		return strconv.Itoa(t), true
	case []any:
		if len(t) != 2 {
			return "", false
		}
		x, okX := t[0].(float64)
		y, okY := t[1].(float64)
		if !okX || !okY {
			return "", false
		}
		return formatPoint(models.Point{x, y}), true
	}
	return "", false
}

func field(b *strings.Builder, key, value string) {
	b.WriteString(indent)
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString(";\n")
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	if val == 0 {
		// -0 печатается как 0
		return "0"
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return "[" + formatFloat(p.X()) + ", " + formatFloat(p.Y()) + "]"
}
