package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/tubestage/internal/verify"
)

const sample = `
mode: verify
fps: 1000
walk:
  cap: 3
  interval_ms: 2
palettes:
  duo:
    colors: ["#ff0000", "#0000ff"]
    speed: 2
transport:
  default: ddp
  bridge:
    codec: msgpack
`

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "verify", c.Mode)
	assert.Equal(t, MaxFPS, c.FPS)
	assert.Equal(t, "ddp", c.Transport.Default)
	assert.Equal(t, "msgpack", c.Transport.Bridge.Codec)
	// untouched keys keep their defaults
	assert.Equal(t, "ws://127.0.0.1:8787", c.Transport.Bridge.URL)
	assert.Equal(t, 4048, c.Transport.DDP.Port)
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, c.Palettes["duo"].Colors)

	p := c.WalkPlan()
	assert.Equal(t, verify.Walk, p.Kind)
	assert.Equal(t, 3, p.Cap)
	assert.Equal(t, verify.MinInterval, p.Interval)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.FPS = 0
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MinFPS, got.FPS)
	assert.Equal(t, time.Second, got.FrameInterval())
	assert.Equal(t, verify.DefaultPlan(), got.WalkPlan())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	neg := -4
	c := &Config{Mode: "party", Walk: Walk{Cap: &neg}}
	c.Normalize()
	assert.Equal(t, "show", c.Mode)
	assert.Equal(t, 0, *c.Walk.Cap)
	assert.Equal(t, 2, c.Transport.QueueDepth)
	assert.Equal(t, 25*time.Millisecond, (&Config{FPS: 40}).FrameInterval())
}
