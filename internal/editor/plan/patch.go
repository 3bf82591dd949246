package plan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Patch
// ============================================================

const (
	// DimensionFallback подставляется вместо нечитаемых width/height/size.
	DimensionFallback = 1.0
	// CoordinateFallback подставляется вместо нечитаемых координат.
	CoordinateFallback = 0.0
)

// Patch - частичный набор изменений в виде полей формы.
// Ключи: id, label, width, height, direction, position.0, position.1,
// size.0, size.1, start.0, start.1, end.0, end.1; остальные уходят в Extra.
type Patch map[string]string

func (p Patch) applyTo(el models.Element) (models.Element, error) {
	next := el.Clone()

	for key, value := range p {
		switch key {
		case "id":
			next.ID = strings.TrimSpace(value)
		case "type":
			if kind, err := models.ParseKind(strings.TrimSpace(value)); err != nil || kind != el.Type {
				return models.Element{}, fmt.Errorf("%w: %s", ErrImmutableType, el.ID)
			}
		case "label":
			if value == "" {
				next.Label = nil
			} else {
				v := value
				next.Label = &v
			}
		case "width":
			v := ParseDimension(value)
			next.Width = &v
		case "height":
			v := ParseDimension(value)
			next.Height = &v
		case "direction":
			d := models.Direction(strings.ToLower(strings.TrimSpace(value)))
			switch {
			case value == "":
				next.Direction = nil
			case d.Valid():
				next.Direction = &d
			}
		default:
			if field, axis, ok := splitAxis(key); ok {
				applyAxis(&next, field, axis, value)
				continue
			}
			if value == "" {
				delete(next.Extra, key)
				continue
			}
			if next.Extra == nil {
				next.Extra = map[string]any{}
			}
			next.Extra[key] = value
		}
	}

	return next, nil
}

func splitAxis(key string) (string, int, bool) {
	field, idx, ok := strings.Cut(key, ".")
	if !ok {
		return "", 0, false
	}
	switch field {
	case "position", "size", "start", "end":
	default:
		return "", 0, false
	}
	switch idx {
	case "0":
		return field, 0, true
	case "1":
		return field, 1, true
	}
	return "", 0, false
}

func applyAxis(el *models.Element, field string, axis int, value string) {
	var target **models.Point
	parse := ParseCoordinate

	switch field {
	case "position":
		target = &el.Position
	case "size":
		target = &el.Size
		parse = ParseDimension
	case "start":
		target = &el.Start
	case "end":
		target = &el.End
	}

	if *target == nil {
		*target = &models.Point{}
	}
	(*target)[axis] = parse(value)
}

// ParseDimension разбирает width/height; при ошибке возвращает DimensionFallback.
func ParseDimension(s string) float64 {
	return parseFloat(s, DimensionFallback)
}

// ParseCoordinate разбирает координату; при ошибке возвращает CoordinateFallback.
func ParseCoordinate(s string) float64 {
	return parseFloat(s, CoordinateFallback)
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// FormatNumber - кратчайшее десятичное представление, как в исходном тексте плана.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
