// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command fvsim runs a small demonstration: a 4-bit counter with
// synchronous reset, built from library operators and traced to the
// console.
package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/db47h/fvsim"
	"github.com/db47h/fvsim/fvlib"
	"github.com/db47h/fvsim/logic"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).With().Timestamp().Logger()

	s := fvsim.New(fvsim.WithLogger(log), fvsim.WithMaxTime(200))

	clk, err := fvlib.Clock(s, "clk", 5, 10, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("clock")
	}
	rst := s.Signal("rst", 1)
	if err = rst.Put(logic.MustNew(1, 1)); err != nil {
		log.Fatal().Err(err).Msg("reset")
	}

	// count <- count + 1 on every rising edge, 0 while rst is high
	count := s.Signal("count", 4)
	one := logic.MustNew(4, 1)
	clk.OnChanged(func(e fvsim.Event) {
		if !e.Posedge() {
			return
		}
		if rst.Prev().Bit(0) == logic.Hi {
			count.Put(logic.Zero(4)) //nolint:errcheck
			return
		}
		next, _ := count.Prev().Add(one)
		count.Put(next) //nolint:errcheck
	})

	count.OnChanged(func(e fvsim.Event) {
		log.Info().Uint64("time", e.Time).
			Str("count", e.New.String()).Msg("count changed")
	})

	// release reset after the first edge
	if _, err = s.RegisterAction(7, func() { rst.Put(logic.Zero(1)) }); err != nil { //nolint:errcheck
		log.Fatal().Err(err).Msg("schedule")
	}

	if err = s.Run(); err != nil {
		log.Fatal().Err(err).Msg("run")
	}
	log.Info().Uint64("time", s.Time()).Str("count", count.Value().String()).Msg("done")
}
