package commands

import (
	"github.com/spf13/cobra"

	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Runs a ROS script",
	Long: `Parses and executes a script.  Files in the --libs directories (and the
modules and libs from the config) can be imported by file name, with or
without extension:

  ros run main.ros --libs ./lib

Output produced before a runtime error is kept; the error is reported with
its line and column and the exit status is 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ld := loader.NewLoader(nil)
		prog, err := ld.ParseFile(args[0])
		if err != nil {
			return err
		}
		s, err := newSession(cmd, ld)
		if err != nil {
			return err
		}
		env, err := s.NewEnv()
		if err != nil {
			return err
		}
		runtime.Debug("running %s", args[0])
		_, err = s.rt.RunProgram(prog, env)
		return err
	},
}

func init() {
	addRuntimeFlags(runCmd)
	AddCommand(runCmd)
}
