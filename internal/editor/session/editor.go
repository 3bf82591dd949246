package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"floorplan-editor/internal/editor/client"
	"floorplan-editor/internal/editor/hittest"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/plan"
	"floorplan-editor/internal/editor/serializer"
	"floorplan-editor/internal/editor/svgdoc"
	"floorplan-editor/internal/editor/syncer"
	"floorplan-editor/internal/editor/viewport"
)

// ErrOffline - действие требует сервиса рендера, а он не подключен.
var ErrOffline = errors.New("no render service configured")

// ============================================================
// Edit Session State Machine
// ============================================================

type Mode string

const (
	ModeSelect Mode = "select"
	ModeAdd    Mode = "add"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice - сообщение для пользователя.
type Notice struct {
	Level   Level
	Message string
}

// Display - то, что сейчас показано: последний принятый рендер.
type Display struct {
	Stamp     uint64
	RenderRef string
	Body      string
	Document  *svgdoc.Document
}

type Options struct {
	// LiveDrag синхронизирует на каждом шаге перетаскивания, а не только в конце.
	LiveDrag bool
	// AutoSuffix при переименовании в занятый id добавляет суффикс _2, _3...
	// вместо отказа.
	AutoSuffix bool
}

type drag struct {
	id    string
	last  models.Point
	moved bool
}

// Editor - сессия редактирования одного плана. Не потокобезопасен:
// все методы вызываются из одного цикла событий (см. Run).
type Editor struct {
	plan   *plan.Plan
	mapper viewport.Mapper
	tester hittest.Tester
	sync   *syncer.Syncer
	opts   Options

	mode        Mode
	pendingKind models.Kind
	hover       string
	selected    string
	drag        *drag
	draft       *Draft
	display     Display
	notices     []Notice
}

// New собирает сессию. sync может быть nil: тогда правки не отправляются на рендер.
func New(p *plan.Plan, m viewport.Mapper, s *syncer.Syncer, opts Options) *Editor {
	if p == nil {
		p = plan.New()
	}
	e := &Editor{
		plan:        p,
		mapper:      m,
		tester:      hittest.For(m, p),
		sync:        s,
		opts:        opts,
		mode:        ModeSelect,
		pendingKind: models.KindRoom,
	}
	e.fit()
	return e
}

func (e *Editor) Plan() *plan.Plan { return e.plan }
func (e *Editor) Mapper() viewport.Mapper { return e.mapper }
func (e *Editor) Mode() Mode { return e.mode }
func (e *Editor) PendingKind() models.Kind { return e.pendingKind }
func (e *Editor) Hover() string { return e.hover }
func (e *Editor) Selected() string { return e.selected }
func (e *Editor) Dragging() bool { return e.drag != nil }
func (e *Editor) Display() Display { return e.display }

// Draft - буфер формы выбранного элемента; nil, если ничего не выбрано.
func (e *Editor) Draft() *Draft { return e.draft }

// Notices возвращает накопленные сообщения и очищает очередь.
func (e *Editor) Notices() []Notice {
	out := e.notices
	e.notices = nil
	return out
}

// SetMode переключает режим; незавершенное перетаскивание и правки формы сбрасываются.
func (e *Editor) SetMode(m Mode) error {
	if m != ModeSelect && m != ModeAdd {
		return fmt.Errorf("unknown mode %q", m)
	}
	e.mode = m
	e.hover = ""
	e.discardTransient()
	return nil
}

// SetPendingKind задает вид элемента, создаваемого в режиме add.
func (e *Editor) SetPendingKind(kind models.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", plan.ErrUnknownKind, kind)
	}
	e.pendingKind = kind
	return nil
}

// Select выбирает элемент по id; пустой id снимает выбор.
func (e *Editor) Select(id string) {
	if id != "" && !e.plan.Has(id) {
		id = ""
	}
	if id == e.selected {
		return
	}
	e.selected = id
	e.drag = nil
	e.draft = nil
	if el, ok := e.plan.Get(id); ok {
		e.draft = NewDraft(el)
	}
}

// ClearSelection снимает выбор.
func (e *Editor) ClearSelection() { e.Select("") }

// ============================================================
// Pointer handling
// ============================================================

// PointerDown: в select нажатие на выбранный элемент начинает перетаскивание,
// на другой элемент выбирает его, мимо снимает выбор. В add создает элемент.
func (e *Editor) PointerDown(ctx context.Context, ev viewport.PointerEvent) {
	p, ok := e.mapper.ToLogical(ev)
	if !ok {
		return
	}

	if e.mode == ModeAdd {
		e.addAt(ctx, p)
		return
	}

	id, hit := e.tester.Hit(ev, p)
	switch {
	case !hit:
		e.ClearSelection()
	case id == e.selected:
		e.drag = &drag{id: id, last: p}
	default:
		e.Select(id)
	}
}

func (e *Editor) PointerMove(ctx context.Context, ev viewport.PointerEvent) {
	p, ok := e.mapper.ToLogical(ev)
	if !ok {
		return
	}

	if e.drag == nil {
		if e.mode == ModeSelect {
			e.hover, _ = e.tester.Hit(ev, p)
		}
		return
	}

	dx, dy := p.X()-e.drag.last.X(), p.Y()-e.drag.last.Y()
	if dx == 0 && dy == 0 {
		return
	}
	if _, err := e.plan.Move(e.drag.id, dx, dy); err != nil {
		e.notify(LevelError, fmt.Sprintf("Could not move element: %v", err))
		e.drag = nil
		return
	}
	e.drag.last = p
	e.drag.moved = true

	if e.opts.LiveDrag {
		e.requestSync(ctx)
	}
}

// PointerUp завершает перетаскивание и запускает синхронизацию.
func (e *Editor) PointerUp(ctx context.Context, _ viewport.PointerEvent) {
	e.endDrag(ctx)
}

// PointerLeave: указатель покинул поверхность.
func (e *Editor) PointerLeave(ctx context.Context) {
	e.hover = ""
	e.endDrag(ctx)
}

func (e *Editor) endDrag(ctx context.Context) {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	if !d.moved {
		return
	}

	if e.draft != nil && !e.draft.Dirty() {
		if el, ok := e.plan.Get(d.id); ok {
			e.draft = NewDraft(el)
		}
	}
	e.fit()
	e.requestSync(ctx)
}

func (e *Editor) addAt(ctx context.Context, p models.Point) {
	el, err := DefaultElement(e.pendingKind, p)
	if err != nil {
		e.notify(LevelError, err.Error())
		return
	}
	el, err = e.plan.Insert(el)
	if err != nil {
		e.notify(LevelError, fmt.Sprintf("Could not add %s: %v", e.pendingKind, err))
		return
	}
	log.Printf("[EDITOR] added %s at [%s, %s]", el.ID, plan.FormatNumber(p.X()), plan.FormatNumber(p.Y()))

	e.mode = ModeSelect
	e.Select(el.ID)
	e.fit()
	e.requestSync(ctx)
}

// ============================================================
// Keyboard
// ============================================================

// Key обрабатывает клавиши: Delete/Backspace, Escape, +/-/0 для зума.
func (e *Editor) Key(ctx context.Context, key string) {
	switch key {
	case "Delete", "Backspace":
		e.DeleteSelected(ctx)
	case "Escape":
		e.drag = nil
		e.ClearSelection()
	case "+", "=":
		e.mapper.Zoom(viewport.ZoomStep)
	case "-", "_":
		e.mapper.Zoom(1 / viewport.ZoomStep)
	case "0":
		e.mapper.ResetZoom()
	}
}

// ============================================================
// Model actions
// ============================================================

// DeleteSelected удаляет выбранный элемент в обход буфера формы.
func (e *Editor) DeleteSelected(ctx context.Context) bool {
	if e.selected == "" {
		return false
	}
	id := e.selected
	e.drag = nil
	e.draft = nil
	e.selected = ""
	e.hover = ""

	if !e.plan.Remove(id) {
		return false
	}
	log.Printf("[EDITOR] deleted %s", id)
	e.fit()
	e.requestSync(ctx)
	return true
}

// ApplyDraft переносит правки формы в модель. При ошибке модель и буфер не меняются.
func (e *Editor) ApplyDraft(ctx context.Context) error {
	d := e.draft
	if d == nil {
		return nil
	}
	patch := d.Patch()
	if len(patch) == 0 {
		return nil
	}

	if id, ok := patch["id"]; ok && e.opts.AutoSuffix {
		id = strings.TrimSpace(id)
		if id != d.Target() && e.plan.Has(id) {
			patch["id"] = e.plan.UniqueID(id)
		}
	}

	el, err := e.plan.Update(d.Target(), patch)
	if err != nil {
		e.notify(LevelError, fmt.Sprintf("Could not apply changes: %v", err))
		return err
	}
	if el.ID != d.Target() {
		log.Printf("[EDITOR] renamed %s -> %s", d.Target(), el.ID)
	}

	e.selected = el.ID
	e.draft = NewDraft(el)
	e.fit()
	e.requestSync(ctx)
	return nil
}

// DiscardDraft возвращает форму к значениям модели.
func (e *Editor) DiscardDraft() {
	if e.draft != nil {
		e.draft.Discard()
	}
}

// ReplaceModel целиком заменяет модель (например, свежим результатом парсинга).
func (e *Editor) ReplaceModel(data models.FloorPlanData) error {
	if err := e.plan.Replace(data); err != nil {
		e.notify(LevelError, fmt.Sprintf("Could not load floor plan: %v", err))
		return err
	}
	e.resetAfterReplace()
	return nil
}

// LoadSource отправляет исходный текст на парсинг; модель заменится, когда придет ответ.
func (e *Editor) LoadSource(ctx context.Context, source string) error {
	if strings.TrimSpace(source) == "" {
		e.notify(LevelError, "No floor plan source provided")
		return client.ErrEmptySource
	}
	if e.sync == nil {
		return ErrOffline
	}
	t := e.sync.Issue(syncer.KindReplace, source, e.plan.Revision())
	e.sync.Dispatch(ctx, t)
	return nil
}

// ============================================================
// Sync
// ============================================================

// Sync сериализует текущую модель и отправляет на рендер.
func (e *Editor) Sync(ctx context.Context) { e.requestSync(ctx) }

func (e *Editor) requestSync(ctx context.Context) {
	if e.sync == nil {
		return
	}
	text := serializer.SerializeElements(e.plan.Elements())
	t := e.sync.Issue(syncer.KindRender, text, e.plan.Revision())
	e.sync.Dispatch(ctx, t)
}

// ApplyRender применяет результат синхронизации. Вытесненные результаты
// игнорируются, ошибки превращаются в сообщения, модель и картинка не меняются.
func (e *Editor) ApplyRender(res syncer.Result) bool {
	if e.sync == nil || !e.sync.Accept(res) {
		return false
	}
	if res.Err != nil {
		log.Printf("[EDITOR] render #%d failed: %v", res.Stamp, res.Err)
		e.notify(LevelError, renderMessage(res.Err))
		return false
	}

	if res.Kind == syncer.KindReplace {
		data := models.FloorPlanData{Elements: res.Elements, RenderRef: res.RenderRef}
		if err := e.plan.Replace(data); err != nil {
			e.notify(LevelError, fmt.Sprintf("Could not load floor plan: %v", err))
			return false
		}
		e.resetAfterReplace()
	} else if e.plan.Revision() == res.Revision {
		// модель не менялась с момента запроса, ссылка актуальна
		e.plan.SetRenderRef(res.RenderRef)
	}

	e.display = Display{
		Stamp:     res.Stamp,
		RenderRef: res.RenderRef,
		Body:      res.Body,
		Document:  res.Document,
	}
	// результат без документа (FetchDocuments выключен) оставляет прежний лист
	if v, ok := e.mapper.(*viewport.Vector); ok && res.Document != nil {
		v.Replace(res.Document)
	}
	return true
}

func renderMessage(err error) string {
	var status *client.StatusError
	switch {
	case errors.Is(err, client.ErrMalformedResponse):
		return "Invalid response format from render service"
	case errors.As(err, &status):
		return fmt.Sprintf("Render service error (%d): %s", status.StatusCode, strings.TrimSpace(status.Body))
	case errors.Is(err, client.ErrEmptySource):
		return "No floor plan source provided"
	}
	return fmt.Sprintf("Failed to render floor plan: %v", err)
}

// ============================================================
// Helpers
// ============================================================

func (e *Editor) notify(level Level, msg string) {
	e.notices = append(e.notices, Notice{Level: level, Message: msg})
}

// discardTransient сбрасывает перетаскивание и правки формы, выбор сохраняется.
func (e *Editor) discardTransient() {
	e.drag = nil
	e.DiscardDraft()
}

func (e *Editor) resetAfterReplace() {
	e.drag = nil
	e.draft = nil
	e.hover = ""
	if el, ok := e.plan.Get(e.selected); ok {
		e.draft = NewDraft(el)
	} else {
		e.selected = ""
	}
	e.fit()
}

// fit подгоняет raster-поверхность под модель. Во время перетаскивания не вызывается,
// иначе поверхность поедет под курсором.
func (e *Editor) fit() {
	if r, ok := e.mapper.(*viewport.Raster); ok && e.drag == nil {
		r.Fit(e.plan.Elements())
	}
}
