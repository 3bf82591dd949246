package session

import (
	"testing"

	"floorplan-editor/internal/editor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsOfOrder(t *testing.T) {
	w, h := 1.5, 0.25
	dir := models.DirectionRight
	el := models.Element{
		ID: "d1", Type: models.KindDoor,
		Position: &models.Point{2, -0.5}, Width: &w, Height: &h, Direction: &dir,
		Extra: map[string]any{"wall": "w1", "angle": 90.0},
	}

	fields, keys := FieldsOf(el)
	assert.Equal(t, []string{"id", "position.0", "position.1", "width", "height", "direction", "angle", "wall"}, keys)
	assert.Equal(t, "-0.5", fields["position.1"])
	assert.Equal(t, "1.5", fields["width"])
	assert.Equal(t, "right", fields["direction"])
	assert.Equal(t, "90", fields["angle"])
}

func TestDraftPatchHoldsOnlyChanges(t *testing.T) {
	label := "Hall"
	d := NewDraft(models.Element{ID: "r1", Type: models.KindRoom, Label: &label, Position: &models.Point{0, 0}, Size: &models.Point{4, 4}})

	assert.False(t, d.Dirty())
	d.Set("label", "Hall")
	assert.False(t, d.Dirty())

	d.Set("size.1", "5")
	d.Set("color", "blue")
	assert.Equal(t, map[string]string{"size.1": "5", "color": "blue"}, map[string]string(d.Patch()))
	assert.Equal(t, "color", d.Keys()[len(d.Keys())-1])

	d.Discard()
	assert.Empty(t, d.Patch())
	assert.Equal(t, "4", d.Value("size.1"))
}

func TestDefaultElement(t *testing.T) {
	p := models.Point{3, 4}

	room, err := DefaultElement(models.KindRoom, p)
	require.NoError(t, err)
	assert.Equal(t, p, *room.Position)
	assert.Equal(t, models.Point{5, 4}, *room.Size)

	wall, err := DefaultElement(models.KindWall, p)
	require.NoError(t, err)
	assert.Equal(t, models.Point{8, 4}, *wall.End)

	door, err := DefaultElement(models.KindDoor, p)
	require.NoError(t, err)
	require.NotNil(t, door.Direction)
	assert.Equal(t, models.DirectionUp, *door.Direction)

	chair, err := DefaultElement(models.KindChair, p)
	require.NoError(t, err)
	assert.Equal(t, 0.5, *chair.Width)
	assert.Nil(t, chair.Direction)
	assert.Empty(t, chair.ID)

	_, err = DefaultElement("sofa", p)
	assert.Error(t, err)
}
