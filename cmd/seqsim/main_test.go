package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/store"
)

func TestSimulate(t *testing.T) {
	prog := sequence.Program{Clips: []sequence.Clip{
		{Name: "a", Preset: "red", DurationS: 1, XFadeS: 0.5},
		{Name: "b", Preset: "blue", DurationS: 1},
	}}
	var out bytes.Buffer
	end, err := simulate(&out, prog, 4, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, end)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "[SetActive] red", lines[0])
	assert.Contains(t, lines, "[ArmNext] blue")
	assert.Contains(t, lines, "[Crossfade] alpha=0.500")
	assert.Contains(t, lines, "[SetActive] blue")
}

func TestSimulateStopsLoopingPrograms(t *testing.T) {
	prog := sequence.Program{Loop: true, Clips: []sequence.Clip{{Preset: "red", DurationS: 1}}}
	end, err := simulate(&bytes.Buffer{}, prog, 2, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, end)

	_, err = simulate(&bytes.Buffer{}, sequence.Program{}, 2, 3, nil)
	assert.Error(t, err)
}

func TestCheckPresets(t *testing.T) {
	presets := store.NewPresetFile(filepath.Join(t.TempDir(), "presets.yaml"))
	_, err := presets.Save(render.Preset{Name: "red"})
	require.NoError(t, err)

	prog := sequence.Program{Clips: []sequence.Clip{
		{Preset: "red", DurationS: 1},
		{Preset: "blue", DurationS: 1},
		{Preset: "blue", DurationS: 1},
	}}
	assert.Equal(t, []string{"blue"}, checkPresets(prog, presets))
}
