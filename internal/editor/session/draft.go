package session

import (
	"fmt"
	"slices"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/plan"
)

// ============================================================
// Property draft
// ============================================================

// Draft - буфер формы свойств. Правки копятся здесь и попадают в модель
// только через Editor.ApplyDraft.
type Draft struct {
	target   string
	keys     []string
	original map[string]string
	values   map[string]string
}

// NewDraft зеркалит поля элемента в редактируемый буфер.
func NewDraft(el models.Element) *Draft {
	fields, keys := FieldsOf(el)
	values := make(map[string]string, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return &Draft{target: el.ID, keys: keys, original: fields, values: values}
}

// Target - id элемента, с которого снят буфер.
func (d *Draft) Target() string { return d.target }

// Keys - поля формы в порядке показа.
func (d *Draft) Keys() []string { return slices.Clone(d.keys) }

func (d *Draft) Value(key string) string { return d.values[key] }

func (d *Draft) Set(key, value string) {
	if _, ok := d.values[key]; !ok && !slices.Contains(d.keys, key) {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Dirty - есть ли несохраненные правки.
func (d *Draft) Dirty() bool { return len(d.Patch()) > 0 }

// Discard возвращает буфер к значениям модели.
func (d *Draft) Discard() {
	d.values = make(map[string]string, len(d.original))
	for k, v := range d.original {
		d.values[k] = v
	}
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool {
		_, ok := d.original[k]
		return !ok
	})
}

// Patch - только измененные поля.
func (d *Draft) Patch() plan.Patch {
	patch := plan.Patch{}
	for _, k := range d.keys {
		v, ok := d.values[k]
		if !ok {
			continue
		}
		if orig, had := d.original[k]; !had || orig != v {
			patch[k] = v
		}
	}
	return patch
}

// FieldsOf раскладывает элемент в поля формы и возвращает их порядок.
func FieldsOf(el models.Element) (map[string]string, []string) {
	fields := map[string]string{}
	var keys []string
	put := func(k, v string) {
		fields[k] = v
		keys = append(keys, k)
	}
	point := func(name string, p *models.Point) {
		if p != nil {
			put(name+".0", plan.FormatNumber(p.X()))
			put(name+".1", plan.FormatNumber(p.Y()))
		}
	}
	num := func(name string, v *float64) {
		if v != nil {
			put(name, plan.FormatNumber(*v))
		}
	}

	put("id", el.ID)
	if el.Label != nil {
		put("label", *el.Label)
	}
	point("position", el.Position)
	point("size", el.Size)
	point("start", el.Start)
	point("end", el.End)
	num("width", el.Width)
	num("height", el.Height)
	if el.Direction != nil {
		put("direction", string(*el.Direction))
	}

	extra := make([]string, 0, len(el.Extra))
	for k := range el.Extra {
		extra = append(extra, k)
	}
	slices.Sort(extra)
	for _, k := range extra {
		if v := el.Extra[k]; v != nil {
			put(k, fmt.Sprint(v))
		}
	}

	return fields, keys
}
