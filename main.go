package main

import (
	"context"
	"errors"
	"os"

	"rawconv/logger"
)

const (
	exitOK       = 0
	exitNoFiles  = 1
	exitConfig   = 2
	exitFailures = 3
)

func main() {
	console := logger.NewConsole(logger.DefaultOptions())

	args := os.Args[1:]
	// "convert" is an alias for the default command; both paths run the
	// same handler.
	if len(args) > 0 && args[0] == "convert" {
		args = args[1:]
	}

	os.Exit(run(args, console))
}

func run(args []string, console *logger.Console) int {
	cfg, err := ParseConfig(args, console)
	if err != nil {
		console.Error("Configuration error: %v", err)
		return exitConfig
	}

	processor := NewProcessor(cfg, console)

	if err := processor.Run(context.Background()); err != nil {
		var collision *CollisionError
		switch {
		case errors.Is(err, ErrNoInputFiles):
			return exitNoFiles
		case errors.As(err, &collision):
			console.Error("Planning error: %v", err)
			return exitConfig
		default:
			console.Error("Processing error: %v", err)
			return exitFailures
		}
	}

	return exitOK
}
