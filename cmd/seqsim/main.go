// seqsim dry-runs a show program and prints the engine calls it would
// make, without rendering or touching hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/store"
)

func main() {
	var (
		programPath = flag.String("program", "", "path to a program YAML (seq.v1)")
		presetsPath = flag.String("presets", "", "optional presets.yaml to check preset names against")
		fps         = flag.Int("fps", 60, "simulation frames per second")
		maxS        = flag.Float64("max", 120, "stop after this many seconds (looping programs)")
		realtime    = flag.Bool("realtime", false, "tick at wall-clock speed")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *programPath == "" {
		log.Fatal().Msg("provide -program path to a program YAML")
	}
	prog, err := sequence.LoadProgram(*programPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load program")
	}
	if *presetsPath != "" {
		missing := checkPresets(prog, store.NewPresetFile(*presetsPath))
		for _, name := range missing {
			log.Warn().Str("preset", name).Msg("preset not found")
		}
	}

	var pace func()
	if *realtime {
		dt := time.Second / time.Duration(max(1, *fps))
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		pace = func() { <-ticker.C }
	}
	end, err := simulate(os.Stdout, prog, *fps, *maxS, pace)
	if err != nil {
		log.Fatal().Err(err).Msg("simulate")
	}
	fmt.Printf("Done at t=%.3f\n", end)
}

// simulate plays prog at fps until it goes idle or maxS seconds pass,
// writing one line per hook call. It returns the simulated end time.
func simulate(w io.Writer, prog sequence.Program, fps int, maxS float64, pace func()) (float64, error) {
	if fps < 1 {
		fps = 1
	}
	h := sequence.Hooks{
		SetActive: func(preset string) { fmt.Fprintf(w, "[SetActive] %s\n", preset) },
		ArmNext:   func(preset string) { fmt.Fprintf(w, "[ArmNext] %s\n", preset) },
		SetCrossfade: func(alpha float64) {
			fmt.Fprintf(w, "[Crossfade] alpha=%.3f\n", alpha)
		},
		SetParam: func(name string, v float64) {},
		SetBool:  func(name string, b bool) {},
	}
	player := sequence.NewPlayer(h)
	if err := player.Load(prog); err != nil {
		return 0, err
	}
	player.Start()

	dt := 1.0 / float64(fps)
	t := 0.0
	for player.State == sequence.Running && t < maxS {
		if pace != nil {
			pace()
		}
		player.Tick(dt)
		t += dt
	}
	return t, nil
}

// checkPresets returns the preset names prog uses that presets lacks.
func checkPresets(prog sequence.Program, presets store.PresetStore) []string {
	var missing []string
	seen := map[string]bool{}
	for _, c := range prog.Clips {
		if seen[c.Preset] {
			continue
		}
		seen[c.Preset] = true
		if _, err := presets.Find(c.Preset); errors.Is(err, store.ErrNotFound) {
			missing = append(missing, c.Preset)
		}
	}
	return missing
}
