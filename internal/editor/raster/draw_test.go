package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/viewport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []models.Element {
	w, h := 1.0, 0.2
	label := "Hall"
	return []models.Element{
		{ID: "r1", Type: models.KindRoom, Position: &models.Point{0, 0}, Size: &models.Point{10, 8}, Label: &label},
		{ID: "w1", Type: models.KindWall, Start: &models.Point{0, 0}, End: &models.Point{10, 0}},
		{ID: "d1", Type: models.KindDoor, Position: &models.Point{5, 8}, Width: &w, Height: &h},
		{ID: "c1", Type: models.KindChair, Position: &models.Point{2, 2}, Width: &w},
	}
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestDrawMatchesSurface(t *testing.T) {
	view := viewport.NewRaster(20)
	view.Fit(sample())

	img, err := Draw(view, sample(), Options{Selected: "d1", Hover: "r1", Grid: true})
	require.NoError(t, err)

	w, h := view.SurfaceSize()
	assert.Equal(t, w, img.Bounds().Dx())
	assert.Equal(t, h, img.Bounds().Dy())

	// середина стены и угол за пределами плана
	sx, sy := view.ToSurface(models.Point{5, 0})
	assert.False(t, isWhite(img.At(int(sx), int(sy))))
	assert.True(t, isWhite(img.At(2, 2)))
}

func TestDrawEmpty(t *testing.T) {
	view := viewport.NewRaster(40)
	view.Fit(nil)

	img, err := Draw(view, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.True(t, isWhite(img.At(50, 50)))
}

func TestEncodePNG(t *testing.T) {
	view := viewport.NewRaster(10)
	view.Fit(sample())
	img, err := Draw(view, sample(), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
