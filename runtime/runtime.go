package runtime

import (
	"io"
	"os"
	"time"
)

// Version is reported through the ROS dict of every base environment.
const Version = "0.3.0"

// DefaultMaxDepth is the call depth at which a run fails with a
// RecursionError unless changed with WithMaxDepth.
const DefaultMaxDepth = 1000

// ImportablesKey is the reserved binding holding the host module map.
const ImportablesKey = "__importables__"

// Runtime holds what is shared by every run: the I/O streams builtins
// use, host registered natives and the strict flag.
type Runtime struct {
	Stdout io.Writer
	Stdin  io.Reader

	// Strict makes base environments reject assignments that would create
	// a name outside the block doing the assigning.
	Strict bool

	// Sleep backs the delay builtin.
	Sleep func(time.Duration)

	// MaxDepth bounds nested calls of user functions.  Zero or less means
	// no limit, in which case runaway recursion exhausts the Go stack.
	MaxDepth int

	// Input backs the input builtin.  When nil, lines are read from Stdin
	// and prompts written to Stdout.
	Input Prompter

	natives []builtin
}

type Option func(*Runtime)

func WithStdout(w io.Writer) Option { return func(r *Runtime) { r.Stdout = w } }
func WithStdin(in io.Reader) Option { return func(r *Runtime) { r.Stdin = in } }
func WithStrict(strict bool) Option { return func(r *Runtime) { r.Strict = strict } }
func WithMaxDepth(depth int) Option { return func(r *Runtime) { r.MaxDepth = depth } }

// WithInput makes the input builtin read through p, so a host can share
// one line reader between its own prompt and scripts.
func WithInput(p Prompter) Option {
	return func(r *Runtime) { r.Input = p }
}

func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Runtime) { r.Sleep = sleep }
}

func NewRuntime(opts ...Option) (r *Runtime) {
	r = &Runtime{
		Stdout:   os.Stdout,
		Stdin:    os.Stdin,
		Sleep:    time.Sleep,
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return
}

// RegisterNative adds a host function to every base environment built
// after this call.  Registering an existing name replaces it.
func (r *Runtime) RegisterNative(name string, fn NativeFunc, params ...string) {
	for i, n := range r.natives {
		if n.Name == name {
			r.natives[i] = builtin{name, params, fn}
			return
		}
	}
	r.natives = append(r.natives, builtin{name, params, fn})
}

func (r *Runtime) prompter() Prompter {
	if r.Input == nil {
		r.Input = NewReaderPrompter(r.Stdin, r.Stdout)
	}
	return r.Input
}

// BasicEnvironment builds a root scope with the builtins, the ROS info
// dict, the module map and any registered natives.
func (r *Runtime) BasicEnvironment(importables map[string]string) *Env {
	env := NewEnv(nil).SetStrict(r.Strict)
	for _, b := range builtins {
		env.SetHere(b.Name, NewNativeFunction(b.Name, b.Fn, b.Params...))
	}

	info := NewDict()
	info.Set("ver", StringValue(Version))
	env.SetHere("ROS", DictValue(info))

	modules := NewDict()
	for _, name := range sortedKeys(importables) {
		modules.Set(name, StringValue(importables[name]))
	}
	env.SetHere(ImportablesKey, DictValue(modules))

	for _, n := range r.natives {
		env.SetHere(n.Name, NewNativeFunction(n.Name, n.Fn, n.Params...))
	}
	return env
}

// Run parses and executes source against env, returning the (mutated)
// environment.  A nil env gets a fresh BasicEnvironment with no modules.
// Output already produced and mutations already made are kept when an
// error aborts the run.
func (r *Runtime) Run(source string, env *Env) (*Env, error) {
	if env == nil {
		env = r.BasicEnvironment(nil)
	}
	return NewEvaluator(r).runSource(source, env)
}

// RunProgram executes an already parsed program.
func (r *Runtime) RunProgram(prog *Program, env *Env) (*Env, error) {
	if env == nil {
		env = r.BasicEnvironment(nil)
	}
	_, err := NewEvaluator(r).ExecProgram(prog, env)
	return env, err
}
