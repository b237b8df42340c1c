package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/runtime"
)

const replHelp = `Type 'run' to execute block
'clear' to clear block
'save <path>' to save block into a file
'load <path>' to load a file
'last' to load the last ran block into the current block
'cls' to clear the terminal
'exit' to quit.`

// Repl is a line buffer: lines accumulate until `run`, which executes
// them as one program in a fresh environment.
type Repl struct {
	Out    io.Writer
	FS     loader.FileSystem
	NewEnv func() (*runtime.Env, error)
	Run    func(source string, env *runtime.Env) error

	lines   []string
	lastRan []string
}

func (r *Repl) Prompt() string {
	return fmt.Sprintf("[%04d]> ", len(r.lines)+1)
}

// Lines returns the current block.
func (r *Repl) Lines() []string {
	return r.lines
}

// HandleLine processes one input line.  It returns false once the user
// asked to quit.
func (r *Repl) HandleLine(line string) bool {
	fields := strings.Fields(line)
	command := ""
	if len(fields) > 0 {
		command = strings.ToLower(fields[0])
	}
	switch {
	case command == "exit" || command == "quit":
		return false
	case command == "run" && len(fields) == 1:
		r.lastRan, r.lines = r.lines, nil
		r.execute(strings.Join(r.lastRan, "\n"))
	case command == "clear" && len(fields) == 1:
		r.lines = nil
	case command == "cls" && len(fields) == 1:
		fmt.Fprint(r.Out, "\033[H\033[2J")
	case command == "last" && len(fields) == 1:
		r.lines = append([]string(nil), r.lastRan...)
		r.echo()
	case command == "save" && len(fields) == 2:
		if err := r.FS.WriteFile(fields[1], []byte(strings.Join(r.lines, "\n")+"\n")); err != nil {
			r.report(err)
			return true
		}
		r.lines = nil
		fmt.Fprintln(r.Out, "---")
	case command == "load" && len(fields) == 2:
		data, err := r.FS.ReadFile(fields[1])
		if err != nil {
			r.report(err)
			return true
		}
		r.lines = strings.Split(strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), "\n")
		r.echo()
	default:
		r.lines = append(r.lines, line)
	}
	return true
}

func (r *Repl) execute(source string) {
	env, err := r.NewEnv()
	if err == nil {
		err = r.Run(source, env)
	}
	if err != nil {
		r.report(err)
	}
}

func (r *Repl) echo() {
	for i, line := range r.lines {
		fmt.Fprintf(r.Out, "[%04d]> %s\n", i+1, strings.TrimSpace(line))
	}
}

func (r *Repl) report(err error) {
	printError(r.Out, err)
}

// Loop reads lines through in until EOF or exit.  Scripts calling input()
// read through the same Prompter when the runtime was given it.
func (r *Repl) Loop(in runtime.Prompter) error {
	fmt.Fprintf(r.Out, "ROS(Ruby On Spaces) ver:%s\n%s\n", runtime.Version, replHelp)
	for {
		line, err := in.Prompt(r.Prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			// Ctrl-C drops the line being typed, not the block
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.Out)
			return nil
		case err != nil:
			return err
		}
		if !r.HandleLine(line) {
			return nil
		}
	}
}

// historyPrompter records every non blank line in the liner history.
type historyPrompter struct {
	*liner.State
}

func (h historyPrompter) Prompt(prompt string) (string, error) {
	line, err := h.State.Prompt(prompt)
	if err == nil && strings.TrimSpace(line) != "" {
		h.AppendHistory(line)
	}
	return line, err
}

// newPrompter uses liner for line editing and history when stdin is a
// terminal, and a plain line reader otherwise.
func newPrompter(cmd *cobra.Command) (runtime.Prompter, func()) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) && liner.TerminalSupported() {
		ln := liner.NewLiner()
		ln.SetCtrlCAborts(true)
		return historyPrompter{ln}, func() { _ = ln.Close() }
	}
	return runtime.NewReaderPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), func() {}
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Starts an interactive line buffered REPL",
	Long: `Lines typed at the prompt are collected into a block.  'run' executes the
block in a fresh environment, 'save'/'load' move blocks to and from files and
'last' brings back the block that was run last.  On a terminal lines can be
edited and earlier lines recalled with the arrow keys.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompter, done := newPrompter(cmd)
		defer done()
		ld := loader.NewLoader(nil)
		s, err := newSession(cmd, ld, runtime.WithInput(prompter))
		if err != nil {
			return err
		}
		repl := &Repl{
			Out:    cmd.OutOrStdout(),
			FS:     ld.FS(),
			NewEnv: s.NewEnv,
			Run: func(source string, env *runtime.Env) error {
				_, err := s.rt.Run(source, env)
				return err
			},
		}
		return repl.Loop(prompter)
	},
}

func init() {
	addRuntimeFlags(replCmd)
	AddCommand(replCmd)
}
