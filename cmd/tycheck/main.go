// tycheck is the command-line front-end for the type checker: the check,
// buck-check, and lsp commands spec §6 names, grounded on the teacher's
// cmd/ailang/main.go dispatch shape (flag.Parse then flag.Arg(0) switch).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gradualtype/tycheck/internal/cli"
	"github.com/gradualtype/tycheck/internal/lsp"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return cli.ExitFailure
	}

	command := args[0]
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "enable verbose tracing")
	fs.BoolVar(verbose, "v", false, "enable verbose tracing (shorthand)")
	threads := fs.Int("threads", 0, "worker pool size (0 = all cores)")
	fs.IntVar(threads, "j", 0, "worker pool size (shorthand)")
	configPath := fs.String("config", "", "path to a tycheck.yaml project config")
	outputPath := fs.String("output", "", "output path for buck-check's diagnostic JSON")
	fs.StringVar(outputPath, "o", "", "output path (shorthand)")

	if err := fs.Parse(args[1:]); err != nil {
		return cli.ExitFailure
	}

	opts := cli.Options{Verbose: *verbose, Threads: *threads, Config: *configPath}

	switch command {
	case "check":
		return cli.Check(context.Background(), fs.Args(), opts, os.Stdout, os.Stderr)
	case "buck-check":
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "buck-check: expected exactly one <input.json> argument")
			return cli.ExitFailure
		}
		if *outputPath != "" {
			opts.OutputDir = filepath.Dir(*outputPath)
		}
		return cli.BuckCheck(context.Background(), fs.Arg(0), *outputPath, opts, os.Stderr)
	case "lsp":
		if err := lsp.Serve(context.Background(), os.Stdin, os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "lsp: %v\n", err)
			return cli.ExitFailure
		}
		return cli.ExitOK
	default:
		fmt.Fprintf(os.Stderr, "tycheck: unknown command %q\n", command)
		printUsage()
		return cli.ExitFailure
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: tycheck <command> [flags] [args...]

commands:
  check <files...>              type-check the given files
  buck-check --output <o> <i>   batch-check a buck-check input JSON
  lsp                           speak Language Server Protocol 3.17 over stdio

flags:
  -v, --verbose       enable verbose tracing
  -j, --threads N     worker pool size (0 = all cores)
  --config PATH       project tycheck.yaml
  -o, --output PATH   output path (buck-check)

environment: PYRE_LOG (tracing directives), THREADS (same as -j), OUTPUT_PATH (same as -o)`)
}
