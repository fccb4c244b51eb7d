package main

import (
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/run"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl <file>",
		Short: "Trace a program, then inspect its terminal scope interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadConfig()
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res := run.Source(string(src))
			report(args[0], res)
			if res.Session == nil {
				return res.Err
			}
			return repl(res)
		},
	}
}

// repl reads expressions and evaluates them against the terminal scope of
// the completed run. Quit with ctrl-D.
func repl(res *run.Result) error {
	rl, err := readline.New("steplens> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	pterm.Info.Println("enter expressions, quit with <ctrl>D")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		v, err := res.Session.EvalInTerminal(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		pterm.Info.Println(interp.Display(v))
	}
	println("Good bye!")
	return nil
}
