package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Room")
	require.NoError(t, err)
	assert.Equal(t, KindRoom, k)

	k, err = ParseKind("ELEVATOR")
	require.NoError(t, err)
	assert.Equal(t, KindElevator, k)

	_, err = ParseKind("sofa")
	assert.Error(t, err)

	assert.True(t, KindDoor.Valid())
	assert.False(t, Kind("Door").Valid())
	assert.Equal(t, "Window", KindWindow.Title())
}

func TestKindGroups(t *testing.T) {
	assert.True(t, KindBed.IsFurnishing())
	assert.False(t, KindDoor.IsFurnishing())
	assert.True(t, KindDoor.IsPointLike())
	assert.True(t, KindChair.IsPointLike())
	assert.False(t, KindWall.IsPointLike())
}

func TestElementJSON(t *testing.T) {
	raw := `{"id":"d1","type":"Door","position":[3,0],"width":1,"direction":"left","wall":"w1","note":null}`

	var el Element
	require.NoError(t, json.Unmarshal([]byte(raw), &el))

	assert.Equal(t, "d1", el.ID)
	assert.Equal(t, KindDoor, el.Type)
	require.NotNil(t, el.Position)
	assert.Equal(t, Point{3, 0}, *el.Position)
	require.NotNil(t, el.Direction)
	assert.Equal(t, DirectionLeft, *el.Direction)
	wall, ok := el.ExtraString("wall")
	assert.True(t, ok)
	assert.Equal(t, "w1", wall)
	assert.NotContains(t, el.Extra, "note")

	out, err := json.Marshal(el)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "door", back["type"])
	assert.Equal(t, "w1", back["wall"])
	assert.Equal(t, []any{3.0, 0.0}, back["position"])
	assert.NotContains(t, back, "size")
}

func TestElementJSONExtraCannotShadowTypedFields(t *testing.T) {
	el := Element{ID: "r1", Type: KindRoom, Extra: map[string]any{"id": "other", "color": "red"}}

	out, err := json.Marshal(el)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "r1", back["id"])
	assert.Equal(t, "red", back["color"])
}

func TestCloneIsDeep(t *testing.T) {
	label := "Kitchen"
	el := Element{
		ID: "r1", Type: KindRoom,
		Position: &Point{0, 0}, Size: &Point{4, 3}, Label: &label,
		Extra: map[string]any{"floor": "1"},
	}

	c := el.Clone()
	c.Position[0] = 10
	*c.Label = "Hall"
	c.Extra["floor"] = "2"

	assert.Equal(t, 0.0, el.Position.X())
	assert.Equal(t, "Kitchen", *el.Label)
	assert.Equal(t, "1", el.Extra["floor"])
}

func TestFloorPlanDataJSON(t *testing.T) {
	raw := `{"elements":[{"id":"w1","type":"wall","start":[0,0],"end":[5,0]}],"svg_url":"/api/svg/x"}`

	var data FloorPlanData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	require.Len(t, data.Elements, 1)
	assert.Equal(t, KindWall, data.Elements[0].Type)
	assert.Equal(t, "/api/svg/x", data.RenderRef)

	c := data.Clone()
	c.Elements[0].End[0] = 9
	assert.Equal(t, 5.0, data.Elements[0].End.X())
}
