package session

import (
	"context"
	"fmt"
	"log"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/syncer"
	"floorplan-editor/internal/editor/viewport"
)

// ============================================================
// Event loop
// ============================================================

type EventType string

const (
	EventPointerDown  EventType = "pointerdown"
	EventPointerMove  EventType = "pointermove"
	EventPointerUp    EventType = "pointerup"
	EventPointerLeave EventType = "pointerleave"
	EventKey          EventType = "key"

	EventMode    EventType = "mode"
	EventKind    EventType = "kind"
	EventSelect  EventType = "select"
	EventSet     EventType = "set"
	EventApply   EventType = "apply"
	EventDiscard EventType = "discard"
	EventDelete  EventType = "delete"
	EventLoad    EventType = "load"
	EventSync    EventType = "sync"

	// EventWait блокирует цикл, пока не придут все отправленные рендеры.
	EventWait EventType = "wait"
)

// Event - одно событие ввода или команда формы. Используются только поля,
// относящиеся к Type. TargetID задает узел документа под указателем по маркеру,
// если Pointer.Target не заполнен.
type Event struct {
	Type     EventType
	Pointer  viewport.PointerEvent
	TargetID string
	Key      string
	Mode     Mode
	Kind     models.Kind
	ID       string
	Field    string
	Value    string
	Source   string
}

// Handle обрабатывает одно событие.
func (e *Editor) Handle(ctx context.Context, ev Event) error {
	ev.Pointer = e.resolveTarget(ev)

	switch ev.Type {
	case EventPointerDown:
		e.PointerDown(ctx, ev.Pointer)
	case EventPointerMove:
		e.PointerMove(ctx, ev.Pointer)
	case EventPointerUp:
		e.PointerUp(ctx, ev.Pointer)
	case EventPointerLeave:
		e.PointerLeave(ctx)
	case EventKey:
		e.Key(ctx, ev.Key)
	case EventMode:
		return e.SetMode(ev.Mode)
	case EventKind:
		return e.SetPendingKind(ev.Kind)
	case EventSelect:
		e.Select(ev.ID)
	case EventSet:
		if e.draft == nil {
			return fmt.Errorf("set %s: nothing selected", ev.Field)
		}
		e.draft.Set(ev.Field, ev.Value)
	case EventApply:
		return e.ApplyDraft(ctx)
	case EventDiscard:
		e.DiscardDraft()
	case EventDelete:
		e.DeleteSelected(ctx)
	case EventLoad:
		return e.LoadSource(ctx, ev.Source)
	case EventSync:
		e.Sync(ctx)
	case EventWait:
		return e.Settle(ctx)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

func (e *Editor) resolveTarget(ev Event) viewport.PointerEvent {
	p := ev.Pointer
	if p.Target != nil || ev.TargetID == "" {
		return p
	}
	if v, ok := e.mapper.(*viewport.Vector); ok && v.Document() != nil {
		p.Target = v.Document().FindByIdentity(ev.TargetID)
	}
	return p
}

// Run - цикл событий: ввод и результаты рендера обрабатываются по одному.
// Возвращается, когда закрыт events или отменен ctx.
func (e *Editor) Run(ctx context.Context, events <-chan Event) error {
	var results <-chan syncer.Result
	if e.sync != nil {
		results = e.sync.Results()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := e.Handle(ctx, ev); err != nil {
				log.Printf("[EDITOR] %s: %v", ev.Type, err)
			}
		case res := <-results:
			e.ApplyRender(res)
		}
	}
}

// Settle дожидается всех отправленных запросов рендера и применяет их результаты.
func (e *Editor) Settle(ctx context.Context) error {
	if e.sync == nil {
		return nil
	}
	for !e.sync.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-e.sync.Results():
			e.ApplyRender(res)
		}
	}
	return nil
}
