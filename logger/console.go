// Package logger provides the console surface for rawconv: an slog-backed
// Console with icon helpers, a determinate progress bar, a summary table,
// and a timer.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	White  = "\033[37m"
)

type Options struct {
	Output     io.Writer
	Level      slog.Level
	TimeFormat string
	NoColor    bool
}

func DefaultOptions() *Options {
	return &Options{
		Output:     os.Stdout,
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	}
}

// Console wraps an slog.Logger with the notice styles the converter emits.
type Console struct {
	Logger    *slog.Logger
	out       io.Writer
	Colorized bool
}

func NewConsole(opts *Options) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handler := tint.NewHandler(opts.Output, &tint.Options{
		Level:      opts.Level,
		TimeFormat: opts.TimeFormat,
		NoColor:    opts.NoColor,
	})

	return &Console{
		Logger:    slog.New(handler),
		out:       opts.Output,
		Colorized: !opts.NoColor,
	}
}

func (c *Console) paint(color, msg string) string {
	if !c.Colorized {
		return msg
	}
	return color + Bold + msg + Reset
}

func (c *Console) Success(format string, args ...interface{}) {
	c.Logger.Info(c.paint(Green, "✓ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Info(format string, args ...interface{}) {
	c.Logger.Info(c.paint(Blue, "ℹ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Convert(format string, args ...interface{}) {
	c.Logger.Info(c.paint(White, "→ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Skip(format string, args ...interface{}) {
	c.Logger.Info(c.paint(Yellow, "↷ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.Logger.Warn(c.paint(Yellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Error(format string, args ...interface{}) {
	c.Logger.Error(c.paint(Red, "✖ "+fmt.Sprintf(format, args...)))
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{Name: name, StartTime: time.Now(), Console: c}
}

func (c *Console) NewProgressBar(total int64, label string) *ProgressBar {
	return NewProgressBar(total, label, c.out)
}

func (c *Console) NewTable(headers []string) *Table {
	return NewTable(headers, c.out)
}

// Box draws a titled box around multi-line content, used for version info.
func (c *Console) Box(title string, content string) {
	lines := strings.Split(content, "\n")
	maxWidth := len(title)
	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}
	maxWidth += 4

	fmt.Fprintln(c.out, "┌─"+title+"─"+strings.Repeat("─", maxWidth-len(title)-2)+"┐")
	for _, line := range lines {
		fmt.Fprintln(c.out, "│ "+line+strings.Repeat(" ", maxWidth-len(line))+" │")
	}
	fmt.Fprintln(c.out, "└"+strings.Repeat("─", maxWidth+2)+"┘")
}
