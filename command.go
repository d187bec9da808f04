package main

import (
	"flag"
	"fmt"
	"os"

	"rawconv/logger"
)

// ErrorPolicy selects what a batch run does with per-file failures.
type ErrorPolicy string

const (
	// ContinueOnError logs each failure, counts it, and keeps going.
	ContinueOnError ErrorPolicy = "continue"
	// AbortOnError cancels the run at the first failure.
	AbortOnError ErrorPolicy = "abort"
)

type Config struct {
	InputDir  string
	OutputDir string
	Format    Format
	Resize    int
	Quality   int
	Workers   int
	OnError   ErrorPolicy
	Version   string
}

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ParseConfig parses and validates the command line. args is argv without
// the program name (and without the "convert" alias, which main strips
// before calling this). Flags come before the two positional directories.
func ParseConfig(args []string, console *logger.Console) (*Config, error) {
	cfg := &Config{Version: Version}

	fs := flag.NewFlagSet("rawconv", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var formatName, onError string
	fs.StringVar(&formatName, "format", "jpeg", "Output format: jpeg, png, webp, avif")
	fs.StringVar(&formatName, "f", "jpeg", "Shorthand for -format")
	fs.IntVar(&cfg.Resize, "resize", 384, "Max dimension (longest edge), 0 = no resize")
	fs.IntVar(&cfg.Resize, "r", 384, "Shorthand for -resize")
	fs.IntVar(&cfg.Quality, "quality", 92, "Encoder quality (1-100), used by jpeg/webp/avif")
	fs.IntVar(&cfg.Quality, "q", 92, "Shorthand for -quality")
	fs.IntVar(&cfg.Workers, "workers", 1, "Number of concurrent workers")
	fs.IntVar(&cfg.Workers, "w", 1, "Shorthand for -workers")
	fs.StringVar(&onError, "on-error", string(ContinueOnError), "Per-file failure policy: continue or abort")
	showVersion := fs.Bool("version", false, "Show version information")

	fs.Usage = func() { printUsage(fs, console) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *showVersion {
		console.Box("rawconv version information", fmt.Sprintf(
			"Version: %s\nBuild date: %s\nGit commit: %s",
			cfg.Version, BuildDate, GitCommit,
		))
		os.Exit(0)
	}

	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected INPUT_DIR and OUTPUT_DIR, got %d argument(s)", len(rest))
	}
	cfg.InputDir, cfg.OutputDir = rest[0], rest[1]

	format, err := ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	switch ErrorPolicy(onError) {
	case ContinueOnError, AbortOnError:
		cfg.OnError = ErrorPolicy(onError)
	default:
		return nil, fmt.Errorf("invalid -on-error value %q (use continue or abort)", onError)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", cfg.InputDir)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return fmt.Errorf("quality must be in range 1-100")
	}
	if cfg.Resize < 0 {
		return fmt.Errorf("resize must be 0 or a positive dimension")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

func printUsage(fs *flag.FlagSet, console *logger.Console) {
	console.Info("Usage: rawconv [convert] [options] INPUT_DIR OUTPUT_DIR")
	console.Info("Batch convert RAW images (CR2, DNG) under INPUT_DIR into OUTPUT_DIR.")
	console.Info("Options:")
	fs.VisitAll(func(f *flag.Flag) {
		if len(f.Name) == 1 {
			return
		}
		console.Logger.Info(fmt.Sprintf("  -%s (default %q): %s", f.Name, f.DefValue, f.Usage))
	})
	console.Info("Exit codes: 0 ok, 1 no RAW files found, 2 configuration error, 3 conversion failures")
}
