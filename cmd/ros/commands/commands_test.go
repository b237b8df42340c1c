package commands

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/ros/config"
	"github.com/panyam/ros/decl"
	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/runtime"
)

// resetFlags puts every flag back to its default since cobra keeps parsed
// values on the command tree between executions.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(reset)
	}
}

func plainOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	local := loader.NewLocalFS(dir)
	for path, content := range files {
		require.NoError(t, local.WriteFile(path, []byte(content)))
	}
	return dir
}

func TestRunCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib/greet.ros": "module = {}\ndef module.hello(self, who)\n  return \"hello \" + who\nend",
		"main.ros":      "import \"greet\"\nname = input()\nprint(greet.hello(name))",
	})
	out, err := execute(t, "ros\n", "run", filepath.Join(dir, "main.ros"), "--libs", filepath.Join(dir, "lib"))
	require.NoError(t, err)
	assert.Equal(t, "hello ros\n", out)
}

func TestRunCommandErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fails.ros":  "print(\"before\")\nprint(nope)",
		"broken.ros": "x = (1 +",
	})

	out, err := execute(t, "", "run", filepath.Join(dir, "fails.ros"))
	assert.ErrorIs(t, err, decl.ErrName)
	assert.Equal(t, "before\n", out)
	pos, ok := decl.ErrorPos(err)
	require.True(t, ok)
	assert.Equal(t, 2, pos.Line)

	_, err = execute(t, "", "run", filepath.Join(dir, "broken.ros"))
	assert.ErrorIs(t, err, decl.ErrParse)

	_, err = execute(t, "", "run", filepath.Join(dir, "missing.ros"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCommandWithConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ros.yaml": "globals:\n  greeting: hi\nmodules:\n  inline: \"module = 7\"\n",
		"main.ros": "import \"inline\"\nprint(greeting, inline)",
	})
	out, err := execute(t, "", "run", "--config", filepath.Join(dir, "ros.yaml"), filepath.Join(dir, "main.ros"))
	require.NoError(t, err)
	assert.Equal(t, "hi 7\n", out)
}

func TestTokensCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"t.ros": "x = 1\n", "bad.ros": "x @"})

	out, err := execute(t, "", "tokens", filepath.Join(dir, "t.ros"))
	require.NoError(t, err)
	assert.Contains(t, out, "1:1\tID\t\"x\"\n")
	assert.Contains(t, out, "1:3\tOP\t\"=\"\n")
	assert.Contains(t, out, "1:5\tNUMBER\t\"1\"\n")

	out, err = execute(t, "", "tokens", filepath.Join(dir, "bad.ros"))
	assert.ErrorIs(t, err, decl.ErrLex)
	assert.Contains(t, out, "1:1\tID\t\"x\"\n", "tokens before the error are still printed")
}

func TestAstCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"f.ros": "def f(n)\nreturn n\nend"})
	out, err := execute(t, "", "ast", filepath.Join(dir, "f.ros"))
	require.NoError(t, err)
	assert.Contains(t, out, "def f(n)\n")
	assert.Contains(t, out, "  return n\n")
}

func TestValidateCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"good.ros": "x = 1", "bad.ros": "def"})
	good, bad := filepath.Join(dir, "good.ros"), filepath.Join(dir, "bad.ros")

	out, err := execute(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	out, err = execute(t, "", "validate", good, bad)
	assert.True(t, errors.Is(err, errValidationFailed))
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, bad)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ROS "+runtime.Version+"\n", out)
}

func TestReplCommand(t *testing.T) {
	out, err := execute(t, "x = 2\nprint(x * 3)\nrun\nprint(x)\nrun\nexit\nnever = 1\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "ROS(Ruby On Spaces) ver:")
	assert.Contains(t, out, "6\n")
	assert.Contains(t, out, "undefined variable 'x'", "each run gets a fresh environment")
}

func TestReplSharesInputWithScripts(t *testing.T) {
	out, err := execute(t, "name = input(\"who? \")\nprint(\"hi \" + name)\nrun\nbob\nexit\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "who? hi bob\n")
	assert.NotContains(t, out, "undefined variable 'bob'", "the answer is not read as a block line")
}

// lineSource replays canned results from Prompt.
type lineSource struct {
	lines []string
	errs  []error
}

func (l *lineSource) Prompt(prompt string) (string, error) {
	if len(l.lines) == 0 {
		return "", io.EOF
	}
	line, err := l.lines[0], l.errs[0]
	l.lines, l.errs = l.lines[1:], l.errs[1:]
	return line, err
}

func TestReplLoop(t *testing.T) {
	r, out, ran := newTestRepl()
	src := &lineSource{
		lines: []string{"a = 1", "", "b = 2", "run"},
		errs:  []error{nil, liner.ErrPromptAborted, nil, nil},
	}
	require.NoError(t, r.Loop(src))
	assert.Equal(t, []string{"a = 1\nb = 2"}, *ran, "an aborted prompt keeps the block")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))

	r, _, ran = newTestRepl()
	failure := errors.New("tty closed")
	err := r.Loop(&lineSource{lines: []string{"x = 1", ""}, errs: []error{nil, failure}})
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, *ran)
}

func newTestRepl() (*Repl, *bytes.Buffer, *[]string) {
	out := &bytes.Buffer{}
	var ran []string
	return &Repl{
		Out:    out,
		FS:     loader.NewMemoryFS(),
		NewEnv: func() (*runtime.Env, error) { return runtime.NewEnv(nil), nil },
		Run: func(source string, env *runtime.Env) error {
			ran = append(ran, source)
			return nil
		},
	}, out, &ran
}

func TestReplBlocks(t *testing.T) {
	r, out, ran := newTestRepl()

	assert.Equal(t, "[0001]> ", r.Prompt())
	r.HandleLine("a = 1")
	r.HandleLine("print(a)")
	assert.Equal(t, "[0003]> ", r.Prompt())

	r.HandleLine("run")
	assert.Equal(t, []string{"a = 1\nprint(a)"}, *ran)
	assert.Empty(t, r.Lines())

	r.HandleLine("last")
	assert.Equal(t, []string{"a = 1", "print(a)"}, r.Lines())
	assert.Contains(t, out.String(), "[0002]> print(a)\n")

	r.HandleLine("clear")
	assert.Empty(t, r.Lines())

	// Only whole command words are commands
	r.HandleLine("clearance = 1")
	r.HandleLine("  RUN  ")
	assert.Len(t, *ran, 2)
	assert.Empty(t, r.Lines())

	assert.False(t, r.HandleLine("exit"))
}

func TestReplSaveAndLoad(t *testing.T) {
	plainOutput(t)
	r, out, _ := newTestRepl()
	r.HandleLine("x = 1")
	r.HandleLine("print(x)")
	r.HandleLine("save blocks/saved.ros")
	assert.Empty(t, r.Lines())
	assert.Contains(t, out.String(), "---\n")

	data, err := r.FS.ReadFile("blocks/saved.ros")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\nprint(x)\n", string(data))

	r.HandleLine("load blocks/saved.ros")
	assert.Equal(t, []string{"x = 1", "print(x)"}, r.Lines())
	assert.Equal(t, "[0003]> ", r.Prompt())

	out.Reset()
	r.HandleLine("load missing.ros")
	assert.Contains(t, out.String(), "Error: ")
	assert.Equal(t, []string{"x = 1", "print(x)"}, r.Lines(), "failed load keeps the block")
}

func TestReplReportsRunErrors(t *testing.T) {
	plainOutput(t)
	r, out, _ := newTestRepl()
	r.Run = func(source string, env *runtime.Env) error {
		return decl.NameErrorf(decl.Location{Line: 1, Col: 1}, "undefined variable 'y'")
	}
	r.HandleLine("print(y)")
	r.HandleLine("run")
	assert.Contains(t, out.String(), "Error: NameError::UndefinedVariable at 1:1: undefined variable 'y'")
}

func TestLogLevelSources(t *testing.T) {
	prev := runtime.GetLogLevel()
	t.Cleanup(func() { runtime.SetLogLevel(prev) })
	t.Setenv(config.EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(config.EnvLogLevel))

	dir := writeFiles(t, map[string]string{
		"debug.env": "ROS_LOG_LEVEL=debug\n",
		"ros.yaml":  "log_level: warn\n",
	})
	cfg := filepath.Join(dir, "ros.yaml")

	_, err := execute(t, "", "version", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, runtime.LogLevelWarn, runtime.GetLogLevel(), "config level applies without the variable")

	_, err = execute(t, "", "version", "--config", cfg, "--env-file", filepath.Join(dir, "debug.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", os.Getenv(config.EnvLogLevel))
	assert.Equal(t, runtime.LogLevelDebug, runtime.GetLogLevel(), "env file beats config")

	_, err = execute(t, "", "version", "--config", cfg, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, runtime.LogLevelError, runtime.GetLogLevel(), "flag beats env")

	t.Setenv(config.EnvLogLevel, "loud")
	_, err = execute(t, "", "version")
	assert.ErrorContains(t, err, config.EnvLogLevel)
}

func TestPrettyHandler(t *testing.T) {
	plainOutput(t)

	out := &bytes.Buffer{}
	lvar := &slog.LevelVar{}
	logger := slog.New(NewPrettyHandler(out, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: lvar}}))
	logger.With("module", "math").Info("importing", "depth", 2)
	logger.Debug("hidden")

	line := out.String()
	assert.Contains(t, line, "INFO: importing module=math depth=2\n")
	assert.NotContains(t, line, "hidden")

	lvar.Set(slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, out.String(), "DEBUG: shown")
}
