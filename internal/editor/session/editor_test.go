package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"floorplan-editor/internal/editor/client"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/plan"
	"floorplan-editor/internal/editor/serializer"
	"floorplan-editor/internal/editor/syncer"
	"floorplan-editor/internal/editor/viewport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Fixtures
// ============================================================

const markedSVG = `<svg viewBox="0 0 12 10" width="120" height="100">
  <rect data-id="r1" x="0" y="0" width="10" height="8"/>
  <line data-id="w1" x1="20" y1="0" x2="30" y2="0"/>
</svg>`

type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	sources  []string
	hold     chan struct{}
	holdFor  string
	err      error
	elements []models.Element
}

func (f *fakeRenderer) Render(ctx context.Context, source string) (*client.RenderResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.sources = append(f.sources, source)
	var hold chan struct{}
	if source == f.holdFor {
		hold = f.hold
	}
	err := f.err
	elements := f.elements
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &client.RenderResult{Elements: elements, RenderRef: fmt.Sprintf("/api/svg/%d", n)}, nil
}

func (f *fakeRenderer) FetchDocument(context.Context, string, uint64) (string, error) {
	return markedSVG, nil
}

func (f *fakeRenderer) Sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

func seedPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.FromData(models.FloorPlanData{Elements: []models.Element{
		{ID: "r1", Type: models.KindRoom, Position: &models.Point{0, 0}, Size: &models.Point{10, 8}},
		{ID: "w1", Type: models.KindWall, Start: &models.Point{20, 0}, End: &models.Point{30, 0}},
	}})
	require.NoError(t, err)
	return p
}

func newEditor(t *testing.T, r syncer.Renderer, opts Options) *Editor {
	t.Helper()
	view := viewport.NewRaster(10)
	view.Mount(0, 0)

	var s *syncer.Syncer
	if r != nil {
		s = syncer.New(r)
	}
	return New(seedPlan(t), view, s, opts)
}

func at(t *testing.T, e *Editor, x, y float64) viewport.PointerEvent {
	t.Helper()
	sx, sy, ok := e.Mapper().ToScreen(models.Point{x, y})
	require.True(t, ok)
	return viewport.PointerEvent{ClientX: sx, ClientY: sy}
}

func wallEnds(t *testing.T, e *Editor) (models.Point, models.Point) {
	t.Helper()
	el, ok := e.Plan().Get("w1")
	require.True(t, ok)
	return *el.Start, *el.End
}

// ============================================================
// Selection and drag
// ============================================================

func TestSelectionPrecedesDrag(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})

	e.PointerDown(ctx, at(t, e, 25, 0))
	assert.Equal(t, "w1", e.Selected())
	assert.False(t, e.Dragging())
	require.NotNil(t, e.Draft())
	assert.Equal(t, "w1", e.Draft().Target())

	e.PointerMove(ctx, at(t, e, 27, 0.3))
	start, _ := wallEnds(t, e)
	assert.Equal(t, models.Point{20, 0}, start)
	assert.Equal(t, "w1", e.Hover())
}

func TestDragThenReverseRestoresGeometry(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("w1")

	e.PointerDown(ctx, at(t, e, 25, 0))
	require.True(t, e.Dragging())
	e.PointerMove(ctx, at(t, e, 26, 0.5))
	e.PointerMove(ctx, at(t, e, 27, 1))
	e.PointerUp(ctx, at(t, e, 27, 1))
	assert.False(t, e.Dragging())

	start, end := wallEnds(t, e)
	assert.InDelta(t, 22, start.X(), 1e-9)
	assert.InDelta(t, 1, start.Y(), 1e-9)
	assert.InDelta(t, 32, end.X(), 1e-9)
	assert.InDelta(t, 1, end.Y(), 1e-9)
	assert.Equal(t, "w1", e.Draft().Target())
	assert.False(t, e.Draft().Dirty())

	e.PointerDown(ctx, at(t, e, 27, 1))
	require.True(t, e.Dragging())
	e.PointerMove(ctx, at(t, e, 25, 0))
	e.PointerLeave(ctx)

	start, end = wallEnds(t, e)
	assert.InDelta(t, 20, start.X(), 1e-9)
	assert.InDelta(t, 0, start.Y(), 1e-9)
	assert.InDelta(t, 30, end.X(), 1e-9)
	assert.InDelta(t, 0, end.Y(), 1e-9)
}

func TestPressOnOtherElementSelectsIt(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("w1")

	e.PointerDown(ctx, at(t, e, 5, 4))
	assert.Equal(t, "r1", e.Selected())
	assert.False(t, e.Dragging())
}

func TestMissClearsSelection(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("r1")

	e.PointerDown(ctx, at(t, e, 15, 5))
	assert.Empty(t, e.Selected())
	assert.Nil(t, e.Draft())
}

func TestPointerIgnoredWhenUnmounted(t *testing.T) {
	ctx := context.Background()
	view := viewport.NewRaster(10)
	e := New(seedPlan(t), view, nil, Options{})

	e.PointerDown(ctx, viewport.PointerEvent{ClientX: 60, ClientY: 60})
	assert.Empty(t, e.Selected())
}

// ============================================================
// Add and delete
// ============================================================

func TestAddDoorThenDelete(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	before := e.Plan().Len()

	require.NoError(t, e.SetMode(ModeAdd))
	require.NoError(t, e.SetPendingKind(models.KindDoor))
	e.PointerDown(ctx, at(t, e, 5, 8))

	assert.Equal(t, before+1, e.Plan().Len())
	assert.Equal(t, ModeSelect, e.Mode())
	id := e.Selected()
	require.NotEmpty(t, id)

	door, ok := e.Plan().Get(id)
	require.True(t, ok)
	assert.Equal(t, models.KindDoor, door.Type)
	assert.InDelta(t, 5, door.Position.X(), 1e-9)
	assert.InDelta(t, 8, door.Position.Y(), 1e-9)
	assert.Equal(t, 1.0, *door.Width)
	assert.Equal(t, 0.2, *door.Height)

	e.Key(ctx, "Delete")
	assert.Equal(t, before, e.Plan().Len())
	assert.Empty(t, e.Selected())
	assert.False(t, e.DeleteSelected(ctx))
}

func TestSetPendingKindRejectsUnknown(t *testing.T) {
	e := newEditor(t, nil, Options{})
	assert.ErrorIs(t, e.SetPendingKind("sofa"), plan.ErrUnknownKind)
	assert.Equal(t, models.KindRoom, e.PendingKind())
	assert.Error(t, e.SetMode("draw"))
}

// ============================================================
// Property draft
// ============================================================

func TestApplyDraftRenamesAndCoerces(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("r1")

	e.Draft().Set("id", "kitchen")
	e.Draft().Set("size.0", "abc")
	e.Draft().Set("label", "Kitchen")

	// буфер не трогает модель до apply
	el, _ := e.Plan().Get("r1")
	assert.Nil(t, el.Label)

	require.NoError(t, e.ApplyDraft(ctx))
	assert.Equal(t, "kitchen", e.Selected())
	assert.False(t, e.Plan().Has("r1"))

	el, ok := e.Plan().Get("kitchen")
	require.True(t, ok)
	assert.Equal(t, models.Point{plan.DimensionFallback, 8}, *el.Size)
	assert.Equal(t, "Kitchen", *el.Label)
	assert.Equal(t, "kitchen", e.Draft().Target())
	assert.False(t, e.Draft().Dirty())
	assert.Empty(t, e.Notices())
}

func TestApplyDraftRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("w1")
	before := e.Plan().Elements()

	e.Draft().Set("id", "r1")
	err := e.ApplyDraft(ctx)
	assert.ErrorIs(t, err, plan.ErrDuplicateID)

	assert.Equal(t, before, e.Plan().Elements())
	assert.Equal(t, "w1", e.Selected())
	assert.True(t, e.Draft().Dirty())

	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "Could not apply changes")
}

func TestApplyDraftAutoSuffix(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{AutoSuffix: true})
	e.Select("w1")

	e.Draft().Set("id", "r1")
	require.NoError(t, e.ApplyDraft(ctx))
	assert.Equal(t, "r1_2", e.Selected())
	assert.True(t, e.Plan().Has("r1"))
}

func TestModeSwitchDiscardsTransientState(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("w1")
	e.PointerDown(ctx, at(t, e, 25, 0))
	require.True(t, e.Dragging())
	e.Draft().Set("label", "draft")

	require.NoError(t, e.SetMode(ModeAdd))
	assert.False(t, e.Dragging())
	assert.False(t, e.Draft().Dirty())
	assert.Equal(t, "w1", e.Selected())

	e.Draft().Set("wall", "x")
	e.Select("r1")
	assert.Equal(t, "r1", e.Draft().Target())
	assert.False(t, e.Draft().Dirty())
}

func TestDiscardDraft(t *testing.T) {
	e := newEditor(t, nil, Options{})
	e.Select("r1")
	e.Draft().Set("position.0", "3")
	e.Draft().Set("note", "x")
	require.True(t, e.Draft().Dirty())

	e.DiscardDraft()
	assert.False(t, e.Draft().Dirty())
	assert.NotContains(t, e.Draft().Keys(), "note")
	assert.Equal(t, "0", e.Draft().Value("position.0"))
}

// ============================================================
// Keyboard
// ============================================================

func TestKeyboardZoomAndEscape(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})
	e.Select("r1")

	e.Key(ctx, "+")
	assert.InDelta(t, 12, e.Mapper().CurrentScale(), 1e-9)
	e.Key(ctx, "-")
	assert.InDelta(t, 10, e.Mapper().CurrentScale(), 1e-9)
	e.Key(ctx, "=")
	e.Key(ctx, "0")
	assert.Equal(t, 10.0, e.Mapper().CurrentScale())

	e.Key(ctx, "Escape")
	assert.Empty(t, e.Selected())
}

// ============================================================
// Sync
// ============================================================

func TestLatestRenderWins(t *testing.T) {
	ctx := context.Background()
	hold := make(chan struct{})
	fake := &fakeRenderer{hold: hold}
	e := newEditor(t, fake, Options{})
	s := e.sync

	fake.holdFor = serializer.SerializeElements(e.Plan().Elements())
	e.Sync(ctx)
	_, err := e.Plan().Move("r1", 1, 0)
	require.NoError(t, err)
	e.Sync(ctx)

	second := <-s.Results()
	require.Equal(t, uint64(2), second.Stamp)
	assert.True(t, e.ApplyRender(second))
	assert.Equal(t, second.RenderRef, e.Display().RenderRef)

	close(hold)
	first := <-s.Results()
	require.Equal(t, uint64(1), first.Stamp)
	assert.False(t, e.ApplyRender(first))
	assert.Equal(t, uint64(2), e.Display().Stamp)
	assert.Equal(t, second.RenderRef, e.Display().RenderRef)
	assert.Equal(t, second.RenderRef, e.Plan().RenderRef())
	assert.True(t, s.Idle())
}

func TestRenderRefStaysStaleAfterNewerEdit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{}
	e := newEditor(t, fake, Options{})

	e.Sync(ctx)
	_, err := e.Plan().Move("r1", 1, 1)
	require.NoError(t, err)
	require.NoError(t, e.Settle(ctx))

	assert.Equal(t, "/api/svg/1", e.Display().RenderRef)
	assert.NotNil(t, e.Display().Document)
	assert.Empty(t, e.Plan().RenderRef())
}

func TestMutationsTriggerSync(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{}
	e := newEditor(t, fake, Options{})

	e.Select("w1")
	e.PointerDown(ctx, at(t, e, 25, 0))
	e.PointerMove(ctx, at(t, e, 26, 0))
	e.PointerMove(ctx, at(t, e, 27, 0))
	e.PointerUp(ctx, at(t, e, 27, 0))
	require.NoError(t, e.Settle(ctx))

	sources := fake.Sources()
	require.Len(t, sources, 1)
	assert.Contains(t, sources[0], "Wall {")
	assert.Contains(t, sources[0], `id: "w1";`)

	e.Key(ctx, "Delete")
	require.NoError(t, e.Settle(ctx))
	sources = fake.Sources()
	require.Len(t, sources, 2)
	assert.NotContains(t, sources[1], "w1")
}

func TestLiveDragSyncsEveryMove(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{}
	e := newEditor(t, fake, Options{LiveDrag: true})

	e.Select("w1")
	e.PointerDown(ctx, at(t, e, 25, 0))
	e.PointerMove(ctx, at(t, e, 26, 0))
	e.PointerMove(ctx, at(t, e, 27, 0))
	e.PointerUp(ctx, at(t, e, 27, 0))
	require.NoError(t, e.Settle(ctx))

	assert.Len(t, fake.Sources(), 3)
	assert.Equal(t, uint64(3), e.Display().Stamp)
}

func TestEmptyPlanSyncsLocally(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{}
	e := newEditor(t, fake, Options{})

	e.Select("r1")
	e.DeleteSelected(ctx)
	e.Select("w1")
	e.DeleteSelected(ctx)
	require.NoError(t, e.Settle(ctx))

	sources := fake.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, 0, e.Plan().Len())
	assert.Empty(t, e.Display().RenderRef)
	assert.Empty(t, e.Notices())
}

func TestRenderFailureBecomesNotice(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{err: &client.StatusError{Op: "parse", StatusCode: 500, Body: "boom"}}
	e := newEditor(t, fake, Options{})
	before := e.Plan().Elements()

	e.Sync(ctx)
	require.NoError(t, e.Settle(ctx))

	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Render service error (500): boom", notices[0].Message)
	assert.Equal(t, before, e.Plan().Elements())
	assert.Zero(t, e.Display().Stamp)
}

func TestRenderMessages(t *testing.T) {
	assert.Equal(t, "Invalid response format from render service", renderMessage(fmt.Errorf("x: %w", client.ErrMalformedResponse)))
	assert.Equal(t, "Failed to render floor plan: dial tcp: refused", renderMessage(fmt.Errorf("dial tcp: refused")))
}

// ============================================================
// Loading source
// ============================================================

func TestLoadSourceEmpty(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, &fakeRenderer{}, Options{})

	assert.ErrorIs(t, e.LoadSource(ctx, "   "), client.ErrEmptySource)
	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "No floor plan source provided", notices[0].Message)

	offline := newEditor(t, nil, Options{})
	assert.ErrorIs(t, offline.LoadSource(ctx, "Room {}"), ErrOffline)
}

func TestLoadSourceReplacesModel(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{elements: []models.Element{
		{ID: "r1", Type: models.KindRoom, Position: &models.Point{1, 1}, Size: &models.Point{4, 4}},
		{ID: "d9", Type: models.KindDoor, Position: &models.Point{2, 1}},
	}}
	e := newEditor(t, fake, Options{})
	e.Select("r1")
	e.Draft().Set("label", "pending")

	require.NoError(t, e.LoadSource(ctx, "Room { id: r1 }"))
	require.NoError(t, e.Settle(ctx))

	assert.Equal(t, 2, e.Plan().Len())
	assert.False(t, e.Plan().Has("w1"))
	assert.Equal(t, "/api/svg/1", e.Plan().RenderRef())
	assert.Equal(t, "r1", e.Selected())
	assert.False(t, e.Draft().Dirty())
	assert.Equal(t, "4", e.Draft().Value("size.0"))
}

func TestReplaceModelDropsMissingSelection(t *testing.T) {
	e := newEditor(t, nil, Options{})
	e.Select("w1")

	require.NoError(t, e.ReplaceModel(models.FloorPlanData{Elements: []models.Element{
		{ID: "r1", Type: models.KindRoom, Position: &models.Point{0, 0}, Size: &models.Point{3, 3}},
	}}))
	assert.Empty(t, e.Selected())
	assert.Nil(t, e.Draft())

	err := e.ReplaceModel(models.FloorPlanData{Elements: []models.Element{
		{ID: "a", Type: models.KindRoom}, {ID: "a", Type: models.KindWall},
	}})
	assert.ErrorIs(t, err, plan.ErrDuplicateID)
	assert.True(t, e.Plan().Has("r1"))
	assert.Len(t, e.Notices(), 1)
}

// ============================================================
// Vector backend
// ============================================================

func TestVectorBackendHitsByMarker(t *testing.T) {
	ctx := context.Background()
	view := viewport.NewVector()
	view.Mount(nil, 0, 0)
	e := New(seedPlan(t), view, syncer.New(&fakeRenderer{}), Options{})

	e.Sync(ctx)
	require.NoError(t, e.Settle(ctx))
	require.NotNil(t, view.Document())

	require.NoError(t, e.Handle(ctx, Event{Type: EventPointerDown, Pointer: viewport.PointerEvent{ClientX: 250, ClientY: 1}, TargetID: "w1"}))
	assert.Equal(t, "w1", e.Selected())

	// без цели: ближайший центр маркера r1 в (50, 40) px
	require.NoError(t, e.Handle(ctx, Event{Type: EventPointerDown, Pointer: viewport.PointerEvent{ClientX: 55, ClientY: 45}}))
	assert.Equal(t, "r1", e.Selected())
}

func TestVectorBackendAddsAfterPlanEmptied(t *testing.T) {
	ctx := context.Background()
	view := viewport.NewVector()
	view.Mount(nil, 0, 0)
	e := New(seedPlan(t), view, syncer.New(&fakeRenderer{}), Options{})

	e.Sync(ctx)
	require.NoError(t, e.Settle(ctx))
	require.NotNil(t, view.Document())

	for _, id := range []string{"r1", "w1"} {
		e.Select(id)
		require.True(t, e.DeleteSelected(ctx))
	}
	require.NoError(t, e.Settle(ctx))
	require.Zero(t, e.Plan().Len())
	require.NotNil(t, view.Document())

	// пустой лист 0 0 10 10 показан как 100x100 px
	require.NoError(t, e.SetMode(ModeAdd))
	e.PointerDown(ctx, viewport.PointerEvent{ClientX: 30, ClientY: 30})
	require.Equal(t, 1, e.Plan().Len())
	assert.Equal(t, ModeSelect, e.Mode())

	el, ok := e.Plan().Get(e.Selected())
	require.True(t, ok)
	assert.Equal(t, models.KindRoom, el.Type)
	assert.Equal(t, models.Point{3, 3}, *el.Position)
}

func TestVectorBackendKeepsDocumentWithoutFetch(t *testing.T) {
	ctx := context.Background()
	view := viewport.NewVector()
	view.Mount(nil, 0, 0)
	s := syncer.New(&fakeRenderer{})
	e := New(seedPlan(t), view, s, Options{})

	e.Sync(ctx)
	require.NoError(t, e.Settle(ctx))
	mounted := view.Document()
	require.NotNil(t, mounted)

	s.FetchDocuments = false
	e.Sync(ctx)
	require.NoError(t, e.Settle(ctx))
	assert.Same(t, mounted, view.Document())

	_, ok := e.Mapper().ToLogical(viewport.PointerEvent{ClientX: 10, ClientY: 10})
	assert.True(t, ok)
}

// ============================================================
// Event loop
// ============================================================

func TestRunProcessesScript(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRenderer{}
	e := newEditor(t, fake, Options{})

	events := make(chan Event, 8)
	events <- Event{Type: EventSelect, ID: "r1"}
	events <- Event{Type: EventSet, Field: "label", Value: "Hall"}
	events <- Event{Type: EventApply}
	events <- Event{Type: EventWait}
	events <- Event{Type: "bogus"}
	close(events)

	require.NoError(t, e.Run(ctx, events))
	require.NoError(t, e.Settle(ctx))

	el, _ := e.Plan().Get("r1")
	require.NotNil(t, el.Label)
	assert.Equal(t, "Hall", *el.Label)
	assert.Equal(t, uint64(1), e.Display().Stamp)
	assert.True(t, e.sync.Idle())
}

func TestHandleErrors(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil, Options{})

	assert.Error(t, e.Handle(ctx, Event{Type: EventSet, Field: "label", Value: "x"}))
	assert.Error(t, e.Handle(ctx, Event{Type: "bogus"}))
	assert.NoError(t, e.Handle(ctx, Event{Type: EventWait}))
	assert.NoError(t, e.Handle(ctx, Event{Type: EventKind, Kind: models.KindChair}))
	assert.Equal(t, models.KindChair, e.PendingKind())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newEditor(t, nil, Options{})
	cancel()
	assert.ErrorIs(t, e.Run(ctx, make(chan Event)), context.Canceled)
}
