package commands

import (
	"github.com/spf13/cobra"

	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/runtime"
)

// addRuntimeFlags registers the flags shared by commands that execute code.
func addRuntimeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("libs", nil, "Directories whose files can be imported (repeatable)")
	cmd.Flags().Bool("strict", false, "Make assignments to undeclared names inside blocks a NameError")
}

// session bundles what a command needs to run code: the runtime and a way
// to build fresh root environments over the configured modules.
type session struct {
	rt          *runtime.Runtime
	importables map[string]string
}

func (s *session) NewEnv() (*runtime.Env, error) {
	return activeConfig.Environment(s.rt, s.importables)
}

// newSession applies flag overrides on top of the active config.  extra
// options are applied last.
func newSession(cmd *cobra.Command, ld *loader.Loader, extra ...runtime.Option) (*session, error) {
	cfg := *activeConfig
	if libs, _ := cmd.Flags().GetStringSlice("libs"); len(libs) > 0 {
		cfg.Libs = append(cfg.Libs[:len(cfg.Libs):len(cfg.Libs)], libs...)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict, _ = cmd.Flags().GetBool("strict")
	}

	importables, err := cfg.Importables(ld)
	if err != nil {
		return nil, err
	}
	runtime.Debug("loaded %d importable modules", len(importables))
	opts := append([]runtime.Option{
		runtime.WithStdout(cmd.OutOrStdout()),
		runtime.WithStdin(cmd.InOrStdin()),
	}, extra...)
	rt := runtime.NewRuntime(cfg.RuntimeOptions(opts...)...)
	return &session{rt: rt, importables: importables}, nil
}
