package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"liftctl/config"
	"liftctl/core"
	"liftctl/host/pendant"
	"liftctl/host/rig"
	"liftctl/host/serial"
)

var (
	configPath = flag.String("config", "", "Lift configuration file (.json, .yaml)")
	device     = flag.String("device", "", "Primary pendant serial device (overrides config)")
	motorDev   = flag.String("motor", "", "Motor board serial device (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	console    = flag.Bool("console", true, "Read operator commands from stdin")
)

func main() {
	flag.Parse()

	fmt.Println("liftctl - Lift Actuator Controller")
	fmt.Println("==================================")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	core.SetDebugWriter(func(s string) { logger.Println(s) })
	core.SetDebugEnabled(*verbose || cfg.Debug)
	core.InitAsyncDebug()

	fmt.Printf("Opening %s (%s authority, %s input)...\n", cfg.Name, cfg.Authority, cfg.Input)
	r, err := rig.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open lift: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- r.Lift.Run(ctx) }()
	fmt.Printf("Lift %s running. ", r.Lift.ID())

	if *console {
		fmt.Println("Enter commands (type 'help' for available commands, 'quit' to stop):")
		go runConsole(r, stop)
	} else {
		fmt.Println("Press Ctrl+C to stop.")
	}

	err = <-done
	r.Lift.Stop()
	core.DumpTimingRing(r.Lift.ID().String())
	if cerr := r.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: close: %v\n", cerr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Lift stopped.")
}

func loadConfig() (*config.LiftConfig, error) {
	cfg := config.DefaultLiftConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *device != "" {
		if cfg.Primary.Serial == nil {
			cfg.Primary.Serial = serial.DefaultConfig(*device)
		}
		cfg.Primary.Serial.Device = *device
	}
	if *motorDev != "" && cfg.Motor.Kind == config.MotorBoard {
		if cfg.Motor.Serial == nil {
			cfg.Motor.Serial = serial.DefaultConfig(*motorDev)
		}
		cfg.Motor.Serial.Device = *motorDev
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runConsole reads operator commands until quit or end of input, then
// cancels the run
func runConsole(r *rig.Rig, stop context.CancelFunc) {
	defer stop()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch cmd := strings.Fields(line)[0]; cmd {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "status":
			printStatus(r)

		case "release":
			order := r.Lift.Authority()
			if order == nil {
				fmt.Println("Single operator lift, nothing to release")
				continue
			}
			order.Release()
			fmt.Println("Authority released to the secondary operator")

		case "timing":
			core.DumpTimingRing(r.Lift.ID().String())

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  status         - Show command, limit switch and authority")
	fmt.Println("  release        - Hand authority to the secondary operator")
	fmt.Println("  timing         - Dump the lift event ring")
	fmt.Println("  quit/exit/q    - Stop the lift and exit")
	fmt.Println()
}

func printStatus(r *rig.Rig) {
	fmt.Printf("command: %+.3f  running: %v\n", r.Lift.LastCommand(), r.Lift.IsRunning())
	if order := r.Lift.Authority(); order != nil {
		fmt.Printf("authority: %s\n", order.State())
	}
	if r.Board != nil {
		fmt.Printf("limit: %v (reported: %v)  send errors: %d\n", r.Board.Read(), r.Board.LimitReported(), r.Board.SendErrors())
		if err := r.Board.Err(); err != nil {
			fmt.Printf("board link: %v\n", err)
		}
	}
	if r.Motor != nil {
		if err := r.Motor.Err(); err != nil {
			fmt.Printf("pca9685: %v\n", err)
		}
	}
	for _, p := range []*pendant.Pendant{r.Primary, r.Secondary} {
		if p == nil {
			continue
		}
		s, fresh := p.State()
		fmt.Printf("%s pendant: buttons=%032b axes=%v fresh=%v\n", p.Name, s.Buttons, s.Axes, fresh)
	}
}
