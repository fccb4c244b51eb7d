package main

import (
	"os"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/steplens/steplens/run"
)

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/

var (
	configFile string
	traceLevel string
)

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()

	root := &cobra.Command{
		Use:   "steplens",
		Short: "Statement-level execution tracer for teaching-language programs",
		Long: "steplens traces small teaching-language programs statement by " +
			"statement and records, for every line, the live variables, the " +
			"loop context and function return values. The record feeds a " +
			"projection-box style editor display.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&traceLevel, "trace", "", "trace level (error, info, debug)")
	root.AddCommand(runCmd())
	root.AddCommand(replCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges the configuration file, if any, with command line
// overrides.
func loadConfig() run.Config {
	cfg := run.DefaultConfig()
	if configFile != "" {
		c, err := run.LoadConfig(configFile)
		if err != nil {
			pterm.Error.Println("cannot read configuration:", err)
		}
		cfg = c
	}
	if traceLevel != "" {
		cfg.TraceLevel = traceLevel
	}
	cfg.ApplyTracing()
	return cfg
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
