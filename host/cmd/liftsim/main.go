package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"liftctl/core"
	"liftctl/sim"
)

var (
	input     = flag.String("input", "button", "Operator input mode (button, axis)")
	authority = flag.String("authority", "single", "Authority mode (single, dual)")
	speed     = flag.Float64("speed", 1.0, "Default speed for button input")
	ticker    = flag.Bool("ticker", false, "Pace the loop with a ticker instead of sleeping")
	logPath   = flag.String("log", "", "Write debug output to this file")
)

func main() {
	flag.Parse()

	opts := sim.Options{DefaultSpeed: *speed}
	switch *input {
	case "button":
		opts.Input = core.InputButton
	case "axis":
		opts.Input = core.InputAxis
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown input mode %q\n", *input)
		os.Exit(2)
	}
	switch *authority {
	case "single":
		opts.Authority = core.AuthoritySingle
	case "dual":
		opts.Authority = core.AuthorityDual
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown authority mode %q\n", *authority)
		os.Exit(2)
	}

	var pacer *core.TickerPacer
	if *ticker {
		pacer = &core.TickerPacer{}
		defer pacer.Stop()
		opts.Pacer = pacer
	}

	// The TUI owns the terminal, so debug output can only go to a file
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "liftsim")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		core.SetDebugWriter(func(s string) { log.Println(s) })
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	s := sim.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Lift.Run(ctx) }()

	program := tea.NewProgram(sim.NewModel(s), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	s.Lift.Stop()
	if err := <-done; err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	core.DumpTimingRing(s.Lift.ID().String())
}
