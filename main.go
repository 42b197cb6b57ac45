package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dot5enko/halo2-color-plate-extractor/manager"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

const programName = "halo2-color-plate-extractor"

const (
	modeAll          = "all"
	modeAllOverwrite = "all-overwrite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [flags] <tags> <data> <tag-path|%q|%q>\n", programName, modeAll, modeAllOverwrite)
	fmt.Fprintln(w, "\nFlags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}

func run(args []string, stdout, stderr io.Writer) int {

	var (
		workers    int
		scheduler  string
		verbose    bool
		noColor    bool
		maxTagMB   int64
		maxPlateMB uint64
		help       bool
	)

	flagSet := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVarP(&workers, "workers", "j", 0, "number of parallel extractions in batch mode (0 = detected CPU count)")
	flagSet.StringVar(&scheduler, "scheduler", string(manager.SlotScheduler), "batch scheduler: slots or queue")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug details to stderr")
	flagSet.BoolVar(&noColor, "no-color", false, "disable colored output")
	flagSet.Int64Var(&maxTagMB, "max-tag-mb", 1024, "refuse tag files larger than this many MiB")
	flagSet.Uint64Var(&maxPlateMB, "max-plate-mb", 1024, "refuse color plates that decompress to more than this many MiB")
	flagSet.BoolVarP(&help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stdout, flagSet)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr, flagSet)
		return 1
	}

	if help {
		printUsage(stdout, flagSet)
		return 0
	}

	positional := flagSet.Args()
	if len(positional) != 3 {
		printUsage(stderr, flagSet)
		return 1
	}

	kind := manager.SchedulerKind(scheduler)
	if kind != manager.SlotScheduler && kind != manager.QueueScheduler {
		fmt.Fprintf(stderr, "error: unknown scheduler %q\n", scheduler)
		return 1
	}
	if workers < 0 || maxTagMB <= 0 || maxPlateMB == 0 {
		fmt.Fprintln(stderr, "error: --workers must be >= 0 and size limits must be positive")
		return 1
	}

	if noColor {
		color.NoColor = true
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	tagsRoot, dataRoot, target := positional[0], positional[1], positional[2]

	for _, root := range []string{tagsRoot, dataRoot} {
		if _, err := os.Stat(root); err != nil {
			fmt.Fprintf(stderr, "%s does not exist\n", root)
			return 1
		}
	}

	console := manager.NewConsole(stdout, stderr)

	m := manager.New(manager.ManagerConfig{
		TagsRoot:      tagsRoot,
		DataRoot:      dataRoot,
		Workers:       workers,
		Scheduler:     kind,
		MaxTagBytes:   maxTagMB << 20,
		MaxPlateBytes: maxPlateMB << 20,
	}, console, logger)

	if target == modeAll || target == modeAllOverwrite {

		report, err := m.RunBatch(target == modeAllOverwrite)
		console.Summaryf("%s", report.Summary())

		if err != nil {
			console.Failuref("%s could not be scanned: %v", tagsRoot, err)
			return 1
		}
		return 0
	}

	if outcome := m.ExtractOne(target, false); !outcome.Ok {
		return 1
	}

	return 0
}
