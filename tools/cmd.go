package tools

import (
	"fmt"
	"os"

	"github.com/named-data/impatience/std/log"
	"github.com/named-data/impatience/std/utils/toolutils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CmdStress returns the stress command.
func CmdStress() *cobra.Command {
	cfg := DefaultStressConfig()

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "stress [CONFIG-FILE]",
		Short:   "Hammer a shared cell with concurrent readers and writers",
		Long: `Hammer a shared cell with concurrent readers and writers.
Readers verify a checksum on every value and that values of one writer
are never observed out of order. The allocator must return to zero live
blocks once the cell is closed.`,
		Args:    cobra.MaximumNArgs(1),
		Example: `  impatience stress --readers 8 --writers 2 --iterations 100000`,
		Run: func(cmd *cobra.Command, args []string) {
			runStress(cmd, args, cfg)
		},
	}

	cmd.Flags().IntVarP(&cfg.Readers, "readers", "r", cfg.Readers, "number of reading goroutines")
	cmd.Flags().IntVarP(&cfg.Writers, "writers", "w", cfg.Writers, "number of writing goroutines")
	cmd.Flags().IntVarP(&cfg.Iterations, "iterations", "n", cfg.Iterations, "operations per goroutine")
	cmd.Flags().BoolVar(&cfg.Poison, "poison", cfg.Poison, "poison freed blocks")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logging level")
	return cmd
}

func runStress(cmd *cobra.Command, args []string, cfg *StressConfig) {
	if len(args) == 1 {
		// flags given explicitly win over the file
		fileCfg := DefaultStressConfig()
		if err := toolutils.ReadYaml(fileCfg, args[0]); err != nil {
			log.Fatal(nil, "Unable to read configuration", "err", err)
			return
		}
		cmd.Flags().Visit(func(f *pflag.Flag) { overrideFlag(fileCfg, cfg, f.Name) })
		cfg = fileCfg
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(nil, "Invalid log level", "err", err)
		return
	}
	log.Default().SetLevel(level)

	s := NewStress(cfg)
	report, err := s.Run()
	if err != nil {
		log.Fatal(s, "Stress run failed", "err", err)
		return
	}

	p := toolutils.StatusPrinter{File: os.Stdout, Padding: 14}
	p.Section("stress statistics")
	p.Print("gets", report.Gets)
	p.Print("sets", report.Sets)
	p.Print("torn", report.Torn)
	p.Print("regressions", report.Regressions)
	p.Print("unknown", report.Unknown)
	p.Print("leaked-blocks", report.LeakedSlots)
	p.Print("elapsed", report.Elapsed)
	p.Print("ops-per-sec", fmt.Sprintf("%.0f", float64(report.Gets+report.Sets)/report.Elapsed.Seconds()))

	if !report.Ok() {
		os.Exit(1)
	}
}

func overrideFlag(dst, src *StressConfig, name string) {
	switch name {
	case "readers":
		dst.Readers = src.Readers
	case "writers":
		dst.Writers = src.Writers
	case "iterations":
		dst.Iterations = src.Iterations
	case "poison":
		dst.Poison = src.Poison
	case "log-level":
		dst.LogLevel = src.LogLevel
	}
}

// CmdInterleave returns the interleave command.
func CmdInterleave() *cobra.Command {
	return &cobra.Command{
		GroupID: "tools",
		Use:     "interleave",
		Short:   "Explore every step interleaving of the reclamation protocol",
		Long: `Explore every step interleaving of the reclamation protocol.
Each scenario is replayed once per schedule on a single goroutine; a
schedule fails if a block is freed twice, never freed, or a reader copies
a value other than the one installed when it checked in.`,
		Args: cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			failed := false
			p := toolutils.StatusPrinter{File: os.Stdout, Padding: 18}
			p.Section("interleavings")
			for _, res := range RunInterleave(ArcScenarios()) {
				p.Print(res.Scenario, fmt.Sprintf("%d schedules, %d failures", res.Schedules, len(res.Failures)))
				failed = failed || len(res.Failures) > 0
			}
			if failed {
				os.Exit(1)
			}
		},
	}
}
