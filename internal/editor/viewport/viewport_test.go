package viewport

import (
	"testing"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/svgdoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomPlan() []models.Element {
	return []models.Element{
		{ID: "r1", Type: models.KindRoom, Position: &models.Point{0, 0}, Size: &models.Point{10, 8}},
		{ID: "w1", Type: models.KindWall, Start: &models.Point{0, 0}, End: &models.Point{6, 2}},
	}
}

func TestRasterFlipsYAxis(t *testing.T) {
	r := NewRaster(0)
	r.Fit(roomPlan())
	r.Mount(100, 20)

	w, h := r.SurfaceSize()
	assert.Equal(t, 500, w)
	assert.Equal(t, 420, h)

	p, ok := r.ToLogical(PointerEvent{ClientX: 150, ClientY: 390})
	require.True(t, ok)
	assert.InDelta(t, 0, p.X(), 1e-9)
	assert.InDelta(t, 0, p.Y(), 1e-9)

	p, ok = r.ToLogical(PointerEvent{ClientX: 190, ClientY: 350})
	require.True(t, ok)
	assert.InDelta(t, 1, p.X(), 1e-9)
	assert.InDelta(t, 1, p.Y(), 1e-9)

	x, y, ok := r.ToScreen(models.Point{1, 1})
	require.True(t, ok)
	assert.InDelta(t, 190, x, 1e-9)
	assert.InDelta(t, 350, y, 1e-9)
}

func TestRasterNotMounted(t *testing.T) {
	r := NewRaster(40)
	_, ok := r.ToLogical(PointerEvent{ClientX: 1, ClientY: 1})
	assert.False(t, ok)
	_, _, ok = r.ToScreen(models.Point{})
	assert.False(t, ok)
}

func TestRasterZoom(t *testing.T) {
	r := NewRaster(40)
	r.Fit(roomPlan())
	r.Mount(0, 0)

	r.Zoom(ZoomStep)
	assert.InDelta(t, 48, r.CurrentScale(), 1e-9)

	p := models.Point{3.5, 2}
	x, y, ok := r.ToScreen(p)
	require.True(t, ok)
	back, ok := r.ToLogical(PointerEvent{ClientX: x, ClientY: y})
	require.True(t, ok)
	assert.InDelta(t, p.X(), back.X(), 1e-9)
	assert.InDelta(t, p.Y(), back.Y(), 1e-9)

	r.Zoom(-1)
	assert.InDelta(t, 48, r.CurrentScale(), 1e-9)
	r.ResetZoom()
	assert.Equal(t, 40.0, r.CurrentScale())
}

func TestExtent(t *testing.T) {
	x, y := Extent(roomPlan())
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 8.0, y)

	x, y = Extent(nil)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func parseDoc(t *testing.T, s string) *svgdoc.Document {
	t.Helper()
	doc, err := svgdoc.ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestVectorProjectsThroughViewBox(t *testing.T) {
	v := NewVector()
	v.Mount(parseDoc(t, `<svg viewBox="-1 -1 12 10" width="120" height="100"></svg>`), 10, 20)

	p, ok := v.ToLogical(PointerEvent{ClientX: 10, ClientY: 20})
	require.True(t, ok)
	assert.Equal(t, models.Point{-1, -1}, p)

	p, ok = v.ToLogical(PointerEvent{ClientX: 70, ClientY: 70})
	require.True(t, ok)
	assert.InDelta(t, 5, p.X(), 1e-9)
	assert.InDelta(t, 4, p.Y(), 1e-9)
	assert.InDelta(t, 10, v.CurrentScale(), 1e-9)

	v.Zoom(2)
	assert.InDelta(t, 20, v.CurrentScale(), 1e-9)
	p, ok = v.ToLogical(PointerEvent{ClientX: 130, ClientY: 120})
	require.True(t, ok)
	assert.InDelta(t, 5, p.X(), 1e-9)
	assert.InDelta(t, 4, p.Y(), 1e-9)

	x, y, ok := v.ToScreen(models.Point{5, 4})
	require.True(t, ok)
	assert.InDelta(t, 130, x, 1e-9)
	assert.InDelta(t, 120, y, 1e-9)

	v.ResetZoom()
	assert.Equal(t, 1.0, v.ZoomFactor())
}

func TestVectorHostBox(t *testing.T) {
	v := NewVector()
	v.Mount(parseDoc(t, `<svg viewBox="0 0 12 10" width="120" height="100"></svg>`), 0, 0)
	v.SetBox(Rect{Left: 5, Top: 5, Width: 60, Height: 50})

	assert.InDelta(t, 5, v.CurrentScale(), 1e-9)
	p, ok := v.ToLogical(PointerEvent{ClientX: 35, ClientY: 30})
	require.True(t, ok)
	assert.InDelta(t, 6, p.X(), 1e-9)
	assert.InDelta(t, 5, p.Y(), 1e-9)

	v.Zoom(2)
	assert.Equal(t, 120.0, v.Box().Width)
	v.ResetZoom()
	assert.Equal(t, 60.0, v.Box().Width)
}

func TestVectorFallbackScale(t *testing.T) {
	v := NewVector()
	v.Mount(parseDoc(t, `<svg width="100" height="50"></svg>`), 10, 20)

	p, ok := v.ToLogical(PointerEvent{ClientX: 30, ClientY: 40})
	require.True(t, ok)
	assert.Equal(t, models.Point{2, 2}, p)
	assert.Equal(t, FallbackPixelsPerUnit, v.CurrentScale())
}

func TestVectorNotMounted(t *testing.T) {
	v := NewVector()
	_, ok := v.ToLogical(PointerEvent{})
	assert.False(t, ok)
	assert.Equal(t, BackendVector, v.Backend())
	assert.Equal(t, BackendRaster, NewRaster(1).Backend())
}
