package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/app"
	"github.com/coreman2200/tubestage/internal/config"
	"github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/palette"
	"github.com/coreman2200/tubestage/internal/preview"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/shape"
	"github.com/coreman2200/tubestage/internal/store"
	"github.com/coreman2200/tubestage/internal/transport"
	"github.com/coreman2200/tubestage/internal/ws"
)

func main() {
	// ---- Flags (config.yaml overrides them when present) ----
	var (
		fps        = flag.Int("fps", config.DefaultFPS, "target frames per second (1..240)")
		brightness = flag.Float64("brightness", 1, "global brightness 0..1")
		driver     = flag.String("driver", "sim", "default transport: ws | ddp | spi | sim")
		mode       = flag.String("mode", "show", "start mode: show | verify")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		profile    = flag.String("profile", "", "profile file (overrides config)")
		programDir = flag.String("program-dir", ".", "directory program.play may read from")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		once       = flag.Bool("once", false, "render one frame to the terminal and exit")
		pngPath    = flag.String("png", "", "with -once, also write a PNG snapshot here")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		cfg = config.Default()
		cfg.FPS = config.ClampFPS(*fps)
		cfg.Mode = *mode
		cfg.Addr = *addr
		cfg.Power.Brightness = *brightness
		cfg.Transport.Default = *driver
		cfg.Normalize()
	}
	if *profile != "" {
		cfg.ProfilePath = *profile
	}
	if *simOnly {
		cfg.Transport.Default = "sim"
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	// ---- Profile & presets ----
	profiles := store.ProfileFile{Path: cfg.ProfilePath}
	prof, err := profiles.Load()
	if errors.Is(err, store.ErrNotFound) {
		prof = layout.Demo()
		log.Info().Str("path", cfg.ProfilePath).Msg("no profile saved; starting from the demo stage")
		if err := profiles.Save(prof); err != nil {
			log.Warn().Err(err).Msg("could not save demo profile")
		}
	} else if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("profile load failed")
	}
	presets := store.NewPresetFile(cfg.PresetsPath)

	// ---- Engine ----
	pals := palette.Builtin()
	if err := pals.AddDefs(cfg.Palettes); err != nil {
		log.Warn().Err(err).Msg("config palettes")
	}
	if cfg.PaletteDir != "" {
		n, err := pals.LoadDir(cfg.PaletteDir, 1)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.PaletteDir).Msg("palette dir")
		}
		log.Info().Int("count", n).Str("dir", cfg.PaletteDir).Msg("palettes loaded")
	}
	show := render.DefaultShow()
	if cfg.Show != nil {
		show = *cfg.Show
	}
	show.Power = cfg.Power
	eng := render.NewEngine(shape.Default(), pals, show)

	// ---- Transport ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router, selected := buildRouter(ctx, cfg, prof)
	queue := transport.NewQueue(router, cfg.Transport.QueueDepth)

	// ---- Core ----
	hub := diagnostics.NewHub(64)
	core := app.NewCore(eng, queue, app.Options{FPS: cfg.FPS, Mode: app.Mode(cfg.Mode), Plan: cfg.WalkPlan()})
	core.Profiles = profiles
	core.Presets = presets
	core.Diag = hub
	if err := core.SetProfile(prof); err != nil {
		log.Fatal().Err(err).Msg("profile rejected")
	}
	if cfg.ProgramPath != "" {
		if prog, err := sequence.LoadProgram(cfg.ProgramPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.ProgramPath).Msg("program load failed")
		} else if err := core.Play(prog); err != nil {
			log.Warn().Err(err).Msg("program rejected")
		}
	}

	if *once {
		err := renderOnce(core, *pngPath)
		_ = queue.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("render")
		}
		return
	}

	// ---- HTTP routes ----
	srvState := ws.NewServer(core, hub)
	srvState.Stats = queue
	srvState.ProgramDir = *programDir
	core.OnFrame = srvState.Publish

	mux := http.NewServeMux()
	srvState.Routes(mux)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run conductor & server ----
	go core.Run(ctx)
	go srvState.Run(ctx)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	if err := queue.Close(); err != nil {
		log.Warn().Err(err).Msg("transport close")
	}
}

// renderOnce draws a single frame in the configured mode and prints it.
func renderOnce(core *app.Core, pngPath string) error {
	if core.Mode() == app.VerifyMode {
		core.WalkTick()
	} else {
		core.RenderTick(0)
	}
	snap := core.Last()
	if snap == nil {
		return app.ErrNoProfile
	}
	fmt.Println(preview.Terminal(snap.Space, snap.Frame, 20))
	if pngPath == "" {
		return nil
	}
	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	if err := preview.Snapshot(f, snap.Space, snap.Frame, snap.Profile); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
