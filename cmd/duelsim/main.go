// Package main runs one duel from the command line and prints the result
// (or its replay tape) as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"duel-lite/battle"
	"duel-lite/catalog"
	"duel-lite/duel"
	"duel-lite/internal/config"
	"duel-lite/internal/logging"
	"duel-lite/replay"

	"go.uber.org/zap"
)

type options struct {
	fighterA  string
	fighterB  string
	location  string
	timeOfDay string
	emotional bool
	seed      int64
	tape      bool
	list      bool
	pretty    bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Environ(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("duelsim", flag.ContinueOnError)
	fs.StringVar(&opts.fighterA, "a", "", "first fighter id")
	fs.StringVar(&opts.fighterB, "b", "", "second fighter id")
	fs.StringVar(&opts.location, "location", "", "location id (default: neutral ground)")
	fs.StringVar(&opts.timeOfDay, "time", "day", "time of day (dawn, day, dusk, night)")
	fs.BoolVar(&opts.emotional, "emotional", false, "enable relationships and location stress")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed for reproducibility (0 = random)")
	fs.BoolVar(&opts.tape, "tape", false, "print the replay tape instead of the result")
	fs.BoolVar(&opts.list, "list", false, "list available characters and locations")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !opts.list && (opts.fighterA == "" || opts.fighterB == "") {
		return options{}, errors.New("both -a and -b are required")
	}
	if opts.tape && opts.seed == 0 {
		return options{}, errors.New("-tape needs a fixed -seed")
	}
	return opts, nil
}

func run(ctx context.Context, args, env []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(environ(env))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	src, closeSrc, err := catalog.Open(ctx, cfg.CatalogOptions(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSrc(); err != nil {
			logger.Warn("close catalog", zap.Error(err))
		}
	}()

	if opts.list {
		return writeJSON(out, listing(src), opts.pretty)
	}

	sim, err := battle.NewSimulator(src, cfg.BattleConfig(), logger)
	if err != nil {
		return err
	}

	if opts.tape {
		tape, err := replay.GenerateTape(ctx, sim, replay.Spec{
			FighterA:      opts.fighterA,
			FighterB:      opts.fighterB,
			Location:      opts.location,
			TimeOfDay:     opts.timeOfDay,
			EmotionalMode: opts.emotional,
			Seed:          opts.seed,
		})
		if err != nil {
			return err
		}
		return writeJSON(out, replay.ToWireTape(tape), opts.pretty)
	}

	res, err := sim.Simulate(ctx, battle.Request{
		FighterA:      opts.fighterA,
		FighterB:      opts.fighterB,
		Location:      opts.location,
		TimeOfDay:     opts.timeOfDay,
		EmotionalMode: opts.emotional,
		Deterministic: opts.seed != 0,
		Seed:          opts.seed,
	})
	if err != nil {
		return err
	}
	logger.Info("battle finished",
		zap.String("battle_id", res.BattleID),
		zap.String("reason", res.Reason),
		zap.String("winner", res.WinnerID),
		zap.Int("turns", res.Turns),
	)
	return writeJSON(out, res, opts.pretty)
}

type roster struct {
	Characters []string            `json:"characters"`
	Locations  []string            `json:"locations"`
	ByElement  map[string][]string `json:"byElement,omitempty"`
}

var listedElements = []duel.Element{duel.ElementNone, duel.ElementFire, duel.ElementWater, duel.ElementEarth, duel.ElementAir}

// listing only knows the ids of an in-memory registry; SQL catalogs list
// nothing.
func listing(src battle.Source) roster {
	reg, ok := src.(*catalog.Registry)
	if !ok {
		return roster{Characters: []string{}, Locations: []string{}}
	}
	out := roster{
		Characters: reg.CharacterIDs(),
		Locations:  reg.LocationIDs(),
		ByElement:  make(map[string][]string),
	}
	for _, e := range listedElements {
		for _, c := range reg.ByElement(e) {
			out.ByElement[string(e)] = append(out.ByElement[string(e)], c.ID)
		}
	}
	return out
}

// environ turns KEY=VALUE pairs into the map config reads.
func environ(pairs []string) map[string]string {
	vars := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

func writeJSON(out io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
