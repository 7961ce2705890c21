package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/tubestage/internal/config"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/transport"
)

// buildRouter registers every driver under its address scheme and picks
// the default for bare addresses. The bridge only dials out when the
// startup profile or the default needs it.
func buildRouter(ctx context.Context, cfg *config.Config, prof *layout.Profile) (*transport.Router, string) {
	t := cfg.Transport
	selected := t.Default
	switch selected {
	case "ws", "ddp", "spi", "sim":
	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using SIM")
		selected = "sim"
	}

	r := transport.NewRouter(selected)
	r.Handle("sim", transport.NewSim())
	r.Handle("ddp", transport.NewDDP(t.DDP.Port))
	r.Handle("spi", transport.NewSPI(physic.Frequency(t.SPI.FreqKHz)*physic.KiloHertz))

	b := transport.NewBridge(t.Bridge.URL, transport.Codec(t.Bridge.Codec))
	r.Handle("ws", b)
	if selected == "ws" || usesScheme(prof, "ws") {
		b.Start(ctx)
		log.Info().Str("url", t.Bridge.URL).Str("codec", t.Bridge.Codec).Msg("DDP bridge enabled")
	}
	return r, selected
}

func usesScheme(p *layout.Profile, scheme string) bool {
	if p == nil {
		return false
	}
	for _, d := range p.Devices {
		if strings.HasPrefix(d.Address, scheme+":") {
			return true
		}
	}
	return false
}
