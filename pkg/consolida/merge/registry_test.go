package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

func boldRed() models.CellStyle {
	return models.CellStyle{
		Font: models.Font{Name: "Calibri", Size: 11, Bold: true, Color: "FF0000"},
	}
}

func TestRegistryInternsEqualStyles(t *testing.T) {
	reg := NewStyleRegistry()

	first := reg.Register(boldRed())
	second := reg.Register(boldRed())

	assert.Equal(t, first, second)
	assert.Equal(t, 2, reg.Len(), "default style plus one interned")
	assert.Equal(t, 1, reg.Collapsed())
}

func TestRegistryAssignsSequentialIDs(t *testing.T) {
	reg := NewStyleRegistry()

	a := reg.Register(models.CellStyle{Font: models.Font{Bold: true}})
	b := reg.Register(models.CellStyle{Font: models.Font{Italic: true}})
	c := reg.Register(models.CellStyle{Fill: models.Fill{Pattern: "solid", Color: "FFFF00"}})

	assert.Equal(t, models.StyleID(1), a)
	assert.Equal(t, models.StyleID(2), b)
	assert.Equal(t, models.StyleID(3), c)
	assert.Equal(t, 0, reg.Collapsed())
}

func TestRegistrySnapshotKeepsInsertionOrder(t *testing.T) {
	reg := NewStyleRegistry()
	bold := models.CellStyle{Font: models.Font{Bold: true}}
	italic := models.CellStyle{Font: models.Font{Italic: true}}
	reg.Register(bold)
	reg.Register(italic)

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	assert.True(t, snap[0].IsZero())
	assert.Equal(t, bold, snap[1])
	assert.Equal(t, italic, snap[2])
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	reg := NewStyleRegistry()
	reg.Register(boldRed())

	snap := reg.Snapshot()
	snap[1].Font.Bold = false

	assert.Equal(t, boldRed(), reg.Snapshot()[1])
}
