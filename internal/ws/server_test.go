package ws

import (
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/tubestage/internal/app"
	diag "github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/shape"
	"github.com/coreman2200/tubestage/internal/store"
	"github.com/coreman2200/tubestage/internal/transport"
	"github.com/coreman2200/tubestage/internal/verify"
)

func setup(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	core := app.NewCore(render.NewEngine(nil, nil, render.DefaultShow()), transport.Discard{}, app.Options{})
	core.Presets = store.NewPresetFile(filepath.Join(t.TempDir(), "presets.yaml"))
	require.NoError(t, core.SetProfile(layout.Demo()))

	hub := diag.NewHub(16)
	core.Diag = hub
	s := NewServer(core, hub)
	core.OnFrame = s.Publish

	mux := http.NewServeMux()
	s.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg any) Reply {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	var rep Reply
	require.NoError(t, conn.ReadJSON(&rep))
	return rep
}

func f64(v float64) *float64 { return &v }

func TestControlShowMessages(t *testing.T) {
	s, ts := setup(t)
	conn := dial(t, ts, "/control")

	rep := roundTrip(t, conn, Control{Type: "param", Name: "a.angle", Value: f64(0.5)})
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, 0.5, rep.State.Show.A.Shape.Params.Angle)

	rep = roundTrip(t, conn, Control{Type: "shape", Slot: "b", Kind: "ring"})
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, shape.Ring, s.Core.Eng.Show().B.Shape.Kind)

	rep = roundTrip(t, conn, Control{Type: "color", Slot: "a", Color: &pixel.RGB{R: 1, G: 2, B: 3}})
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, pixel.RGB{R: 1, G: 2, B: 3}, rep.State.Show.A.Color)

	rep = roundTrip(t, conn, Control{Type: "crossfade", Value: f64(4)})
	require.True(t, rep.OK)
	assert.Equal(t, 1.0, rep.State.Show.Crossfade)

	rep = roundTrip(t, conn, Control{Type: "fps", Value: f64(500)})
	require.True(t, rep.OK)
	assert.Equal(t, 240, rep.State.FPS)
}

func TestControlRejects(t *testing.T) {
	s, ts := setup(t)
	conn := dial(t, ts, "/control")

	rep := roundTrip(t, conn, Control{Type: "warp"})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "unknown message type")

	rep = roundTrip(t, conn, Control{Type: "shape", Slot: "a", Kind: "star"})
	assert.False(t, rep.OK)

	rep = roundTrip(t, conn, Control{Type: "param", Name: "a.angle"})
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "missing field")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	var bad Reply
	require.NoError(t, conn.ReadJSON(&bad))
	assert.False(t, bad.OK)

	recent := s.Diag.Recent()
	require.Len(t, recent, 4)
	assert.Equal(t, diag.ControlError, recent[0].Code)
}

func TestControlProfileEdits(t *testing.T) {
	s, ts := setup(t)
	conn := dial(t, ts, "/control")

	rep := roundTrip(t, conn, Control{Type: "device.move", ID: "TL_L1", Value: f64(-9)})
	require.True(t, rep.OK, rep.Error)
	require.NotNil(t, rep.State.Space)
	assert.Equal(t, -9, rep.State.Space.XMin)

	rep = roundTrip(t, conn, Control{Type: "device.add", Device: &layout.Device{ID: "TL_L1", Width: 1}})
	assert.False(t, rep.OK)

	rep = roundTrip(t, conn, Control{Type: "device.remove", ID: "TL_L1"})
	require.True(t, rep.OK, rep.Error)
	assert.Len(t, s.Core.Profile().Devices, 5)

	rep = roundTrip(t, conn, Control{Type: "profile.height", Value: f64(0)})
	assert.False(t, rep.OK)
	assert.Equal(t, 60, s.Core.Profile().Height())
}

func TestControlRejectsOversizedGeometry(t *testing.T) {
	s, ts := setup(t)
	conn := dial(t, ts, "/control")

	for _, msg := range []Control{
		{Type: "device.resize", ID: "TL_L1", Value: f64(1 << 30)},
		{Type: "profile.height", Value: f64(1 << 20)},
		{Type: "device.move", ID: "TL_L1", Value: f64(1e300)},
		{Type: "device.add", Device: &layout.Device{ID: "huge", Width: layout.MaxWidth + 1}},
	} {
		rep := roundTrip(t, conn, msg)
		assert.False(t, rep.OK, msg.Type)
	}
	assert.Equal(t, layout.Demo(), s.Core.Profile())
	assert.True(t, s.Core.RenderTick(0.025))
}

func TestNeedInt(t *testing.T) {
	v, err := needInt(f64(12.7), "value")
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	_, err = needInt(nil, "value")
	assert.ErrorIs(t, err, ErrMissingField)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1 << 40, -1 << 40} {
		_, err = needInt(f64(bad), "value")
		assert.ErrorIs(t, err, ErrBadValue, bad)
	}
}

func TestControlPresetsAndVerify(t *testing.T) {
	s, ts := setup(t)
	conn := dial(t, ts, "/control")

	rep := roundTrip(t, conn, Control{Type: "preset.save", Slot: "a", Name: "look"})
	require.True(t, rep.OK, rep.Error)

	require.True(t, roundTrip(t, conn, Control{Type: "preset.load", Slot: "b", Name: "look"}).OK)
	show := s.Core.Eng.Show()
	assert.Equal(t, show.A, show.B)

	cp := 2
	rep = roundTrip(t, conn, Control{Type: "verify.start", Kind: "index_sweep", Cap: &cp, IntervalMs: 50})
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, app.VerifyMode, rep.State.Mode)
	assert.Equal(t, verify.IndexSweep, rep.State.Verify.Kind)
	assert.Equal(t, 50*time.Millisecond, rep.State.Verify.Interval)

	rep = roundTrip(t, conn, Control{Type: "verify.stop"})
	assert.Equal(t, app.ShowMode, rep.State.Mode)
}

func TestControlProgram(t *testing.T) {
	s, ts := setup(t)
	dir := t.TempDir()
	s.ProgramDir = dir
	_, err := s.Core.SavePreset("a", "", "look")
	require.NoError(t, err)
	prog := "clips:\n  - name: one\n    preset: look\n    duration_s: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "show.yaml"), []byte(prog), 0o644))

	conn := dial(t, ts, "/control")
	rep := roundTrip(t, conn, Control{Type: "program.play", Path: "show.yaml"})
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, "one", rep.State.Player.Clip)

	rep = roundTrip(t, conn, Control{Type: "program.play", Path: "../../etc/passwd"})
	assert.False(t, rep.OK)

	rep = roundTrip(t, conn, Control{Type: "program.stop"})
	assert.Equal(t, "idle", string(rep.State.Player.State))
}

func TestFrameStreamAndSnapshot(t *testing.T) {
	s, ts := setup(t)

	res, err := http.Get(ts.URL + "/snapshot.png")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	conn := dial(t, ts, "/ws")
	var st State
	require.NoError(t, conn.ReadJSON(&st))
	assert.Len(t, st.Profile.Devices, 6)

	require.True(t, s.Core.RenderTick(0.025))
	var fr frameMsg
	require.NoError(t, conn.ReadJSON(&fr))
	assert.Equal(t, uint64(1), fr.FrameID)
	assert.Equal(t, app.ShowMode, fr.Mode)
	assert.Len(t, fr.RGB, fr.Space.N*fr.Space.H*3)

	res, err = http.Get(ts.URL + "/snapshot.png")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	_, err = png.Decode(res.Body)
	require.NoError(t, err)
}

func TestHealthAndDiagStream(t *testing.T) {
	s, ts := setup(t)
	s.Diag.Push(diag.Diagnostic{Severity: diag.Info, Code: "BOOT", Summary: "started"})

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	var h health
	require.NoError(t, json.NewDecoder(res.Body).Decode(&h))
	assert.Equal(t, 6, h.Devices)
	assert.Equal(t, app.ShowMode, h.Mode)
	require.NotNil(t, h.Space)
	assert.Equal(t, 18, h.Space.N)

	conn := dial(t, ts, "/diag")
	var d diag.Diagnostic
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "BOOT", d.Code)

	s.Core.StartVerify(verify.DefaultPlan())
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, diag.VerifyRunning, d.Code)
}
