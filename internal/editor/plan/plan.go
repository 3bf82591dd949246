package plan

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"floorplan-editor/internal/editor/models"

	"github.com/google/uuid"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrNotFound           = errors.New("element not found")
	ErrDuplicateID        = errors.New("duplicate element id")
	ErrEmptyID            = errors.New("element id is empty")
	ErrUnknownKind        = errors.New("unknown element kind")
	ErrImmutableType      = errors.New("element type is immutable")
	ErrIncompleteGeometry = errors.New("incomplete element geometry")
)

// ============================================================
// Element Model
// ============================================================

// Plan - каноническая модель плана. Меняется только через Insert/Remove/Update/Move/Replace,
// каждая мутация инвалидирует ссылку на рендер.
type Plan struct {
	elements  []models.Element
	renderRef string
	revision  uint64
	newID     func(models.Kind) string
}

func New() *Plan {
	return &Plan{newID: defaultID}
}

// FromData строит модель из результата парсинга.
func FromData(data models.FloorPlanData) (*Plan, error) {
	p := New()
	if err := p.Replace(data); err != nil {
		return nil, err
	}
	return p, nil
}

func defaultID(kind models.Kind) string {
	return fmt.Sprintf("%s_%s", kind, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Len возвращает количество элементов.
func (p *Plan) Len() int { return len(p.elements) }

// Elements возвращает копию последовательности элементов.
func (p *Plan) Elements() []models.Element {
	out := make([]models.Element, len(p.elements))
	for i, el := range p.elements {
		out[i] = el.Clone()
	}
	return out
}

// Data возвращает снимок плана вместе со ссылкой на рендер.
func (p *Plan) Data() models.FloorPlanData {
	return models.FloorPlanData{Elements: p.Elements(), RenderRef: p.renderRef}
}

func (p *Plan) Get(id string) (models.Element, bool) {
	if i := p.index(id); i >= 0 {
		return p.elements[i].Clone(), true
	}
	return models.Element{}, false
}

func (p *Plan) Has(id string) bool { return p.index(id) >= 0 }

// RenderRef - последняя ссылка на рендер; пустая строка, если рендер устарел.
func (p *Plan) RenderRef() string { return p.renderRef }

// Revision растет на каждой мутации последовательности элементов.
func (p *Plan) Revision() uint64 { return p.revision }

// SetRenderRef запоминает ссылку на свежий рендер. Геометрию не трогает.
func (p *Plan) SetRenderRef(ref string) { p.renderRef = ref }

// Insert добавляет элемент в конец, при пустом id генерирует новый.
func (p *Plan) Insert(el models.Element) (models.Element, error) {
	el = el.Clone()
	if !el.Type.Valid() {
		return models.Element{}, fmt.Errorf("%w: %q", ErrUnknownKind, el.Type)
	}
	if el.ID == "" {
		el.ID = p.UniqueID(p.newID(el.Type))
	}
	if p.Has(el.ID) {
		return models.Element{}, fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
	}
	if err := validateGeometry(el); err != nil {
		return models.Element{}, err
	}

	p.elements = append(p.elements, el)
	p.invalidate()
	return el.Clone(), nil
}

// Remove удаляет элемент по id. Отсутствующий id - no-op.
func (p *Plan) Remove(id string) bool {
	i := p.index(id)
	if i < 0 {
		return false
	}
	p.elements = append(p.elements[:i], p.elements[i+1:]...)
	p.invalidate()
	return true
}

// Update применяет патч к копии элемента и заменяет оригинал только при успешной валидации.
func (p *Plan) Update(id string, patch Patch) (models.Element, error) {
	i := p.index(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next, err := patch.applyTo(p.elements[i])
	if err != nil {
		return models.Element{}, err
	}
	if next.ID == "" {
		return models.Element{}, ErrEmptyID
	}
	if next.ID != id && p.Has(next.ID) {
		return models.Element{}, fmt.Errorf("%w: %s", ErrDuplicateID, next.ID)
	}
	if err := validateGeometry(next); err != nil {
		return models.Element{}, err
	}

	p.elements[i] = next
	p.invalidate()
	return next.Clone(), nil
}

// Move сдвигает элемент на (dx, dy) логических единиц: position или оба конца стены.
func (p *Plan) Move(id string, dx, dy float64) (models.Element, error) {
	i := p.index(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	el := p.elements[i].Clone()
	if el.Start != nil && el.End != nil {
		*el.Start = el.Start.Add(dx, dy)
		*el.End = el.End.Add(dx, dy)
	}
	if el.Position != nil {
		*el.Position = el.Position.Add(dx, dy)
	}

	p.elements[i] = el
	p.invalidate()
	return el.Clone(), nil
}

// Replace целиком заменяет модель свежим результатом парсинга.
// Элементы неизвестного вида пропускаются, дубли id и неполная геометрия отклоняются.
func (p *Plan) Replace(data models.FloorPlanData) error {
	next := make([]models.Element, 0, len(data.Elements))
	seen := make(map[string]struct{}, len(data.Elements))

	for _, el := range data.Elements {
		if !el.Type.Valid() {
			log.Printf("[PLAN] skipping element %q of unknown kind %q", el.ID, el.Type)
			continue
		}
		el = el.Clone()
		if el.ID == "" {
			el.ID = p.newID(el.Type)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
		}
		if err := validateGeometry(el); err != nil {
			return err
		}
		seen[el.ID] = struct{}{}
		next = append(next, el)
	}

	p.elements = next
	p.renderRef = data.RenderRef
	p.revision++
	return nil
}

// UniqueID возвращает base, либо base_2, base_3... если id уже занят.
func (p *Plan) UniqueID(base string) string {
	if !p.Has(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !p.Has(candidate) {
			return candidate
		}
	}
}

func (p *Plan) index(id string) int {
	for i := range p.elements {
		if p.elements[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Plan) invalidate() {
	p.renderRef = ""
	p.revision++
}

func validateGeometry(el models.Element) error {
	switch el.Type {
	case models.KindRoom:
		if (el.Position == nil) != (el.Size == nil) {
			return fmt.Errorf("%w: room %s needs both position and size", ErrIncompleteGeometry, el.ID)
		}
	case models.KindWall:
		if (el.Start == nil) != (el.End == nil) {
			return fmt.Errorf("%w: wall %s needs both start and end", ErrIncompleteGeometry, el.ID)
		}
	}
	return nil
}
