package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ytausky/gbas/assembler"
	"github.com/ytausky/gbas/config"
	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/linker"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		outFile     = flag.String("o", "", "Output ROM file (default: <input-stem>.gb)")
		configPath  = flag.String("config", "", "Path to a gbas config.toml (default: platform config dir)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gbas %s (%s)\n", Version, Commit)
		os.Exit(0)
	}
	if *showHelp || flag.NArg() != 1 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbas: %v\n", err)
		os.Exit(2)
	}

	input := flag.Arg(0)
	out := *outFile
	if out == "" {
		out = stemOf(input) + cfg.Assembler.DefaultOutExt
	}

	sink := diagnostics.WriterSink{W: os.Stderr}
	program, ok := assembler.Assemble(input, assembler.Config{
		Sink:            sink,
		MaxIncludeDepth: cfg.Assembler.MaxIncludeDepth,
		ROM: linker.Config{
			MinROMLen:     cfg.Assembler.MinROMSize,
			PadByte:       byte(cfg.Assembler.PadByte),
			HighPageStart: int64(cfg.Assembler.HighPageStart),
		},
	})
	if program == nil {
		os.Exit(1)
	}

	if err := os.WriteFile(out, program.ROM, 0644); err != nil { // #nosec G306 -- ROM output, not sensitive
		fmt.Fprintf(os.Stderr, "gbas: writing %s: %v\n", out, err)
		os.Exit(1)
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(program.ROM))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func stemOf(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func printHelp() {
	fmt.Println("gbas - Game Boy assembler")
	fmt.Println()
	fmt.Println("Usage: gbas [flags] <input-file>")
	fmt.Println()
	flag.PrintDefaults()
}
