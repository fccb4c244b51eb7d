package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/run"
	"github.com/steplens/steplens/trace"
)

func runCmd() *cobra.Command {
	var valuesFile string
	var budget int
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Trace a program and write its record to <file>.out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if budget == 0 {
				budget = cfg.StepBudget
			}
			opts := []run.Option{run.WithStepBudget(budget)}
			if valuesFile != "" {
				data, err := os.ReadFile(valuesFile)
				if err != nil {
					return err
				}
				ov, err := run.ParseOverrides(data)
				if err != nil {
					return err
				}
				opts = append(opts, run.WithOverrides(ov))
			}
			res, err := run.File(args[0], opts...)
			if err != nil {
				return err
			}
			report(args[0], res)
			return nil
		},
	}
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON file with override values for what-if replay")
	cmd.Flags().IntVar(&budget, "budget", 0, "step budget (0 uses the configured value)")
	return cmd
}

func report(path string, res *run.Result) {
	switch res.Record.Status {
	case run.StatusOK:
		pterm.Info.Printf("%s traced, %d time steps\n", path, steps(res.Session))
	case run.StatusParseError:
		pterm.Error.Println("parse failed:", res.Err)
	case run.StatusRuntimeError:
		pterm.Error.Println("run failed:", res.Err)
		pterm.Info.Printf("partial record kept, %d time steps\n", steps(res.Session))
	}
	for _, c := range res.Checks {
		text := fmt.Sprintf("line %d: %s", c.Assertion.LineNo, c.Assertion.Text)
		switch {
		case c.Passed == nil:
			pterm.Info.Printf("%s = %s\n", text, interp.Display(c.Actual))
		case *c.Passed:
			pterm.Info.Println("PASS", text)
		default:
			pterm.Error.Printf("FAIL %s, got %s\n", text, interp.Display(c.Actual))
		}
	}
}

func steps(s *trace.Session) int {
	if s == nil {
		return 0
	}
	return s.Time()
}
