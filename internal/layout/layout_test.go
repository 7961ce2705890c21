package layout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeDevices() *Profile {
	return &Profile{
		Name:            "three",
		PixelsPerColumn: 5,
		Devices: []Device{
			{ID: "a", Address: "10.0.0.1", Width: 2, X: -2},
			{ID: "b", Address: "10.0.0.2", Width: 3, X: 0},
			{ID: "c", Address: "10.0.0.3", Width: 1, X: 4},
		},
	}
}

func TestDeriveThreeDevices(t *testing.T) {
	s, ok := Derive(threeDevices())
	require.True(t, ok)
	assert.Equal(t, Space{XMin: -2, XMax: 4, N: 7, Center: 2, H: 5}, s)
}

func TestDeriveEmpty(t *testing.T) {
	_, ok := Derive(nil)
	assert.False(t, ok)
	_, ok = Derive(&Profile{Name: "empty"})
	assert.False(t, ok)
}

func TestDeriveDefaultsHeightAndWidth(t *testing.T) {
	s, ok := Derive(&Profile{Devices: []Device{{ID: "z", X: 3}}})
	require.True(t, ok)
	assert.Equal(t, DefaultHeight, s.H)
	assert.Equal(t, 1, s.N)
	assert.Equal(t, -3, s.Center)
}

func TestDeriveColumnsInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		p := &Profile{PixelsPerColumn: 1 + rng.Intn(10)}
		n := 1 + rng.Intn(8)
		for i := 0; i < n; i++ {
			p.Devices = append(p.Devices, Device{
				ID:    string(rune('a' + i)),
				Width: 1 + rng.Intn(6),
				X:     rng.Intn(40) - 20,
			})
		}
		s, ok := Derive(p)
		require.True(t, ok)
		assert.Equal(t, s.XMax-s.XMin+1, s.N)
		for _, d := range p.Devices {
			u0, u1 := s.Span(d)
			assert.GreaterOrEqual(t, u0, 0)
			assert.Less(t, u1, s.N)
		}
	}
}

func TestDeriveFollowsEdits(t *testing.T) {
	p := threeDevices()
	require.NoError(t, p.Move("c", 10))
	s, _ := Derive(p)
	assert.Equal(t, 13, s.N)

	require.NoError(t, p.Resize("a", 5))
	require.NoError(t, p.Move("a", -6))
	s, _ = Derive(p)
	assert.Equal(t, -6, s.XMin)
	assert.Equal(t, 6, s.Center)

	require.NoError(t, p.SetHeight(12))
	s, _ = Derive(p)
	assert.Equal(t, 12, s.H)
}

func TestProfileEdits(t *testing.T) {
	p := threeDevices()

	assert.ErrorIs(t, p.Add(Device{ID: "a", Width: 1}), ErrDuplicateID)
	assert.ErrorIs(t, p.Add(Device{ID: "", Width: 1}), ErrEmptyID)
	assert.ErrorIs(t, p.Add(Device{ID: "d", Width: 0}), ErrBadWidth)
	require.NoError(t, p.Add(Device{ID: "d", Width: 2, X: 8}))
	assert.Len(t, p.Devices, 4)

	assert.ErrorIs(t, p.Remove("nope"), ErrDeviceNotFound)
	require.NoError(t, p.Remove("b"))
	_, ok := p.Device("b")
	assert.False(t, ok)

	require.NoError(t, p.Update(Device{ID: "c", Address: "10.0.0.9", Width: 2, X: 1, FlipVertical: true}))
	d, ok := p.Device("c")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9", d.Address)
	assert.True(t, d.FlipVertical)
	assert.Equal(t, "c", p.Devices[1].ID, "update keeps declaration order")

	assert.ErrorIs(t, p.SetHeight(0), ErrBadHeight)
	assert.ErrorIs(t, p.Resize("c", 0), ErrBadWidth)
	require.NoError(t, p.Validate())
}

func TestGeometryLimits(t *testing.T) {
	p := threeDevices()

	assert.ErrorIs(t, p.Resize("a", MaxWidth+1), ErrBadWidth)
	assert.ErrorIs(t, p.Resize("a", 1<<30), ErrBadWidth)
	assert.ErrorIs(t, p.SetHeight(MaxHeight+1), ErrBadHeight)
	assert.ErrorIs(t, p.SetHeight(1<<20), ErrBadHeight)
	assert.ErrorIs(t, p.Move("c", math.MaxInt), ErrBadPosition)
	assert.ErrorIs(t, p.Move("c", -MaxX-1), ErrBadPosition)
	assert.ErrorIs(t, p.Add(Device{ID: "wide", Width: MaxWidth + 1}), ErrBadWidth)
	assert.ErrorIs(t, p.Update(Device{ID: "b", Width: 1, X: math.MinInt}), ErrBadPosition)

	// rejected edits leave the profile untouched
	assert.Equal(t, threeDevices(), p)
	require.NoError(t, p.Validate())

	// each field in range, but together too many pixels
	require.NoError(t, p.SetHeight(MaxHeight))
	require.NoError(t, p.Move("c", MaxX))
	assert.ErrorIs(t, p.Validate(), ErrTooLarge)
	require.NoError(t, p.SetHeight(8))
	require.NoError(t, p.Validate())

	raw := &Profile{Devices: []Device{{ID: "far", Width: 1, X: math.MaxInt}}}
	assert.ErrorIs(t, raw.Validate(), ErrBadPosition)
	raw = &Profile{PixelsPerColumn: -3, Devices: []Device{{ID: "x", Width: 1}}}
	assert.ErrorIs(t, raw.Validate(), ErrBadHeight)
}

func TestCloneIsolatesEdits(t *testing.T) {
	p := threeDevices()
	c := p.Clone()
	require.NoError(t, c.Move("a", 100))
	d, _ := p.Device("a")
	assert.Equal(t, -2, d.X)
}

func TestValidateDuplicate(t *testing.T) {
	p := threeDevices()
	p.Devices = append(p.Devices, Device{ID: "b", Width: 1})
	assert.ErrorIs(t, p.Validate(), ErrDuplicateID)
}

func TestOwnerLaterDeviceWins(t *testing.T) {
	p := &Profile{Devices: []Device{
		{ID: "first", Width: 4, X: 0},
		{ID: "second", Width: 2, X: 2},
	}}
	s, _ := Derive(p)
	d, ok := Owner(p, s, 1)
	require.True(t, ok)
	assert.Equal(t, "first", d.ID)
	d, ok = Owner(p, s, 3)
	require.True(t, ok)
	assert.Equal(t, "second", d.ID)
}

func TestDemoDerives(t *testing.T) {
	s, ok := Derive(Demo())
	require.True(t, ok)
	assert.Equal(t, -7, s.XMin)
	assert.Equal(t, 10, s.XMax)
	assert.Equal(t, 18, s.N)
	assert.Equal(t, 7, s.Center)
	require.NoError(t, Demo().Validate())
}
