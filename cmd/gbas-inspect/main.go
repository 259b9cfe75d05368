// Command gbas-inspect assembles a source file and opens a read-only
// terminal browser over the resulting object: its sections, symbols, and
// ROM bytes. It has no stepping or breakpoint concept — assembly has
// already finished by the time the inspector opens anything, unlike the
// teacher's interactive CPU debugger.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ytausky/gbas/assembler"
	"github.com/ytausky/gbas/config"
	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/inspect"
	"github.com/ytausky/gbas/linker"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gbas-inspect <input-file>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbas-inspect: %v\n", err)
		os.Exit(2)
	}

	collector := &diagnostics.Collector{}
	program, _ := assembler.Assemble(flag.Arg(0), assembler.Config{
		Sink:            collector,
		MaxIncludeDepth: cfg.Assembler.MaxIncludeDepth,
		ROM: linker.Config{
			MinROMLen:     cfg.Assembler.MinROMSize,
			PadByte:       byte(cfg.Assembler.PadByte),
			HighPageStart: int64(cfg.Assembler.HighPageStart),
		},
	})
	if program == nil {
		fmt.Fprintln(os.Stderr, "gbas-inspect: could not read input file")
		os.Exit(1)
	}

	app := inspect.NewApp(program, collector, cfg)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gbas-inspect: %v\n", err)
		os.Exit(1)
	}
}
