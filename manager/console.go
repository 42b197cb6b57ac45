package manager

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console serializes user-facing lines coming from concurrent workers.
type Console struct {
	mu sync.Mutex

	out io.Writer
	err io.Writer

	success *color.Color
	failure *color.Color
	summary *color.Color
}

func NewConsole(out, err io.Writer) *Console {
	return &Console{
		out:     out,
		err:     err,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		summary: color.New(color.Bold),
	}
}

func (c *Console) Successf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.success.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Failuref(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failure.Fprintf(c.err, format+"\n", args...)
}

func (c *Console) Summaryf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summary.Fprintf(c.out, format+"\n", args...)
}
