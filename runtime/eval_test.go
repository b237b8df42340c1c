package runtime

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/ros/decl"
)

// runSource runs source in a fresh base environment capturing stdout.
func runSource(t *testing.T, source string, opts ...Option) (*Env, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{WithStdout(out), WithStdin(strings.NewReader(""))}, opts...)
	env, err := NewRuntime(opts...).Run(source, nil)
	return env, out.String(), err
}

func mustRun(t *testing.T, source string, opts ...Option) (*Env, string) {
	t.Helper()
	env, out, err := runSource(t, source, opts...)
	require.NoError(t, err, "source:\n%s", source)
	return env, out
}

func getVar(t *testing.T, env *Env, name string) Value {
	t.Helper()
	v, found := env.Get(name)
	require.True(t, found, "variable %s not bound", name)
	return v
}

func assertRuntimeError(t *testing.T, err error, kind error, code string) *decl.Error {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var rerr *decl.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, code, rerr.Code, "error: %v", err)
	return rerr
}

const fibLoop = `
a = 0
b = 1
for (i = 0; i < %d; i = i + 1)
    c = a + b
    a = b
    b = c
end
`

func TestFibonacciLoop(t *testing.T) {
	for n := 0; n <= 100; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			env, _ := mustRun(t, fmt.Sprintf(fibLoop, n))
			a, b := big.NewInt(0), big.NewInt(1)
			for range n {
				a, b = b, new(big.Int).Add(a, b)
			}
			got := getVar(t, env, "b")
			if b.IsInt64() {
				assert.Equal(t, IntKind, got.Kind)
				assert.Equal(t, b.Int64(), got.Int())
				return
			}
			// Past F(92) the sum no longer fits an int64 and continues in float64
			want, _ := new(big.Float).SetInt(b).Float64()
			assert.Equal(t, FloatKind, got.Kind)
			assert.InEpsilon(t, want, got.Float(), 1e-12)
		})
	}
}

func TestIntegerOverflowSwitchesToFloat(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"9223372036854775807 + 1", 9223372036854775808},
		{"-9223372036854775807 - 2", -9223372036854775809},
		{"4611686018427387904 * 2", 9223372036854775808},
		{"-(-9223372036854775807 - 1)", 9223372036854775808},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			env, _ := mustRun(t, "x = "+tt.expr)
			got := getVar(t, env, "x")
			assert.Equal(t, FloatKind, got.Kind)
			assert.Equal(t, tt.want, got.Float())
		})
	}

	env, _ := mustRun(t, `x = 9223372036854775806 + 1
y = 3037000499 * 3037000499`)
	assert.Equal(t, IntValue(9223372036854775807), getVar(t, env, "x"))
	assert.Equal(t, IntValue(9223372030926249001), getVar(t, env, "y"))
}

func TestFibonacciFunctions(t *testing.T) {
	source := `
def fib(n)
    a = 0
    b = 1
    for (_ = 0; _ != n; _ = _ + 1)
        c = a + b
        a = b
        b = c
    end
    return b
end

def rfib(n)
    if n < 2
        return n
    end
    return rfib(n - 1) + rfib(n - 2)
end

print(fib(10))
r = rfib(15)
`
	env, out := mustRun(t, source)
	assert.Equal(t, "89\n", out)
	assert.Equal(t, int64(610), getVar(t, env, "r").Int())
	_, leaked := env.Get("a")
	assert.False(t, leaked, "function locals stay in the call scope")
}

func TestExpressionValues(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"1+2*3", "7"},
		{"(1+2)*3", "9"},
		{"2<3==true", "true"},
		{"7/2", "3.5"},
		{"6/3", "2.0"},
		{"1.5+1", "2.5"},
		{"true+true", "2"},
		{"-3", "-3"},
		{"--3", "3"},
		{"+true", "1"},
		{"-2.5", "-2.5"},
		{"1/0", "+Inf"},
		{"10-2-3", "5"},
		{"3 >= 3", "true"},
		{"2 > 3", "false"},
		{"2 <= 1", "false"},
		{"1 == 1.0", "true"},
		{"1 != 2", "true"},
		{`"a" == 1`, "false"},
		{`"a" != 1`, "true"},
		{"null == null", "true"},
		{`"ab" + "cd"`, `"abcd"`},
		{`"ab" == "ab"`, "true"},
		{`"ab" * 3`, `"ababab"`},
		{`"ab" * true`, `"ab"`},
		{`"ab" * 0`, `""`},
		{"[1, 2] == [1, 2]", "false"},
		{`[1, "a", [null]]`, `[1, "a", [null]]`},
		{`{b: 1, a: {c: 2.5}}`, `{"b": 1, "a": {"c": 2.5}}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			env, _ := mustRun(t, "x = "+tt.expr)
			assert.Equal(t, tt.expected, getVar(t, env, "x").Repr())
		})
	}
}

func TestOperatorErrors(t *testing.T) {
	tests := []string{
		`"ab" * 2.5`,
		`"a" - 1`,
		`1 < "a"`,
		`-"a"`,
		`null + 1`,
		`{} + 1`,
		`"a" < "b"`,
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, _, err := runSource(t, "x = "+expr)
			assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidOperands)
		})
	}
}

func TestRuntimeErrorsCarryPositions(t *testing.T) {
	_, _, err := runSource(t, "a = 1\nb = a + \"s\"")
	rerr := assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidOperands)
	assert.Equal(t, 2, rerr.Pos.Line)
	assert.Equal(t, 5, rerr.Pos.Col)
	assert.True(t, strings.HasPrefix(err.Error(), "TypeError::InvalidOperands at 2:5: "), err.Error())
}

func TestListOperatorsMutateInPlace(t *testing.T) {
	env, _ := mustRun(t, `
l = [1, 2]
m = l
l + 3
`)
	l, m := getVar(t, env, "l"), getVar(t, env, "m")
	assert.Equal(t, "[1, 2, 3]", l.Repr())
	assert.Same(t, l.List(), m.List())

	env, _ = mustRun(t, `
l = [1, 2, 3, 4]
alias = l
popped = -l
l - 0
def push(x, v)
    x + v
end
push(l, 9)
`)
	assert.Equal(t, "[2, 3, 9]", getVar(t, env, "alias").Repr())
	assert.Same(t, getVar(t, env, "l").List(), getVar(t, env, "popped").List(), "unary minus evaluates to the same list")

	_, _, err := runSource(t, "l = [1]\nl - 5")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidIndex)
	_, _, err = runSource(t, "l = []\n-l")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidIndex)
}

func TestIndexAndMemberAccess(t *testing.T) {
	env, _ := mustRun(t, `
l = [10, 20, 30]
first = l[0]
last = l[-1]
l[1] = 99
d = {a: 1, "b c": 2}
x = d.a
y = d["b c"]
d.z = 3
d["w"] = 4
nested = {inner: [1, {deep: "yes"}]}
deep = nested.inner[1].deep
`)
	assert.Equal(t, int64(10), getVar(t, env, "first").Int())
	assert.Equal(t, int64(30), getVar(t, env, "last").Int())
	assert.Equal(t, "[10, 99, 30]", getVar(t, env, "l").Repr())
	assert.Equal(t, int64(1), getVar(t, env, "x").Int())
	assert.Equal(t, int64(2), getVar(t, env, "y").Int())
	assert.Equal(t, `{"a": 1, "b c": 2, "z": 3, "w": 4}`, getVar(t, env, "d").Repr())
	assert.Equal(t, "yes", getVar(t, env, "deep").Str())

	errors := []string{
		"l = [1]\nx = l[5]",
		"l = [1]\nx = l[\"a\"]",
		"l = [1]\nx = l[0.0]",
		"l = [1]\nl[3] = 1",
		"d = {}\nx = d.missing",
		"d = {}\nx = d[1]",
		"x = 5[0]",
		"x = \"s\".length",
		"n = 1\nn.x = 2",
	}
	for _, src := range errors {
		t.Run(src, func(t *testing.T) {
			_, _, err := runSource(t, src)
			assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidIndex)
		})
	}
}

func TestAssignmentInBlockIsVisibleOutside(t *testing.T) {
	env, _ := mustRun(t, `
if true
    x = 5
end
i = 0
while (i < 2)
    i = i + 1
    fromLoop = i
end
def f()
    if true
        y = 1
    end
    return y
end
z = f()
`)
	assert.Equal(t, int64(5), getVar(t, env, "x").Int())
	assert.Equal(t, int64(2), getVar(t, env, "fromLoop").Int())
	assert.Equal(t, int64(1), getVar(t, env, "z").Int())
	_, found := env.Get("y")
	assert.False(t, found)
}

func TestBlockScopesAreFreshPerIteration(t *testing.T) {
	_, _, err := runSource(t, `
for i in [1, 2]
    if i == 2
        seen = later
    end
    def later() return 1 end
end
`)
	assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)

	_, _, err = runSource(t, "if true\n def helper() return 1 end\nend\nhelper()")
	rerr := assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
	assert.Contains(t, rerr.Msg, "helper")
}

func TestUndefinedVariable(t *testing.T) {
	_, _, err := runSource(t, "print(nope)")
	rerr := assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
	assert.Contains(t, rerr.Msg, "nope")
	assert.Equal(t, 1, rerr.Pos.Line)
	assert.Equal(t, 7, rerr.Pos.Col)
}

func TestSideEffectsBeforeErrorAreKept(t *testing.T) {
	env, out, err := runSource(t, "l = []\nl + 1\nprint(\"before\")\nprint(nope)\nl + 2")
	require.Error(t, err)
	assert.Equal(t, "before\n", out)
	assert.Equal(t, "[1]", getVar(t, env, "l").Repr())
}

func TestRecursionLimit(t *testing.T) {
	source := `
count = 0
def f(n)
  count = count + 1
  return f(n + 1)
end
f(0)
`
	env, _, err := runSource(t, source)
	rerr := assertRuntimeError(t, err, decl.ErrRecursion, decl.CodeMaxDepthExceeded)
	assert.Equal(t, "5:10", rerr.Pos.LineColStr())
	assert.Equal(t, IntValue(DefaultMaxDepth), getVar(t, env, "count"))

	env, _, err = runSource(t, source, WithMaxDepth(5))
	assertRuntimeError(t, err, decl.ErrRecursion, decl.CodeMaxDepthExceeded)
	assert.Equal(t, IntValue(5), getVar(t, env, "count"))

	deep := `
def down(n)
  if n == 0
    return 0
  end
  return down(n - 1)
end
x = down(5000)
`
	_, _, err = runSource(t, deep)
	assertRuntimeError(t, err, decl.ErrRecursion, decl.CodeMaxDepthExceeded)
	env, _ = mustRun(t, deep, WithMaxDepth(0))
	assert.Equal(t, IntValue(0), getVar(t, env, "x"))

	// The depth unwinds after each call so sequential calls do not add up
	env, _ = mustRun(t, "def one() return 1 end\nx = 0\nfor (i = 0; i < 20; i = i + 1) x = x + one() end", WithMaxDepth(3))
	assert.Equal(t, IntValue(20), getVar(t, env, "x"))
}

func TestClosures(t *testing.T) {
	env, _ := mustRun(t, `
def makeCounter()
    state = {n: 0}
    def inc()
        state.n = state.n + 1
        return state.n
    end
    return inc
end
c = makeCounter()
c()
c()
x = c()
d = makeCounter()
y = d()

def makeAcc()
    total = 0
    def add(v)
        total = total + v
        return total
    end
    return add
end
acc = makeAcc()
acc(5)
r = acc(10)
`)
	assert.Equal(t, int64(3), getVar(t, env, "x").Int())
	assert.Equal(t, int64(1), getVar(t, env, "y").Int())
	assert.Equal(t, int64(15), getVar(t, env, "r").Int())
	_, found := env.Get("total")
	assert.False(t, found)
}

func TestReturnCarriesAnyValue(t *testing.T) {
	env, _ := mustRun(t, `
def s() return "hi" end
def l() return [1, 2] end
def d() return {k: true} end
def n() return null end
def f() return s end
def none() x = 1 end
def find(items, target)
    for v in items
        while (true)
            if v == target
                return "found"
            end
            return "inner"
        end
    end
    return "missing"
end
a = s()
b = l()
c = d()
e = n()
g = f()()
h = none()
i = find([2], 2)
j = find([], 5)
`)
	tests := map[string]string{
		"a": `"hi"`,
		"b": "[1, 2]",
		"c": `{"k": true}`,
		"e": "null",
		"g": `"hi"`,
		"h": "null",
		"i": `"found"`,
		"j": `"missing"`,
	}
	for name, expected := range tests {
		assert.Equal(t, expected, getVar(t, env, name).Repr(), name)
	}
}

func TestTopLevelReturnStopsProgram(t *testing.T) {
	env, _ := mustRun(t, "x = 1\nreturn 0\nx = 2")
	assert.Equal(t, int64(1), getVar(t, env, "x").Int())
}

func TestCallArguments(t *testing.T) {
	env, out := mustRun(t, `
def second(a, b) return b end
missing = second(1)
extra = second(1, 2, 3)
def trace(v)
    print(v)
    return v
end
sum = trace(1) + trace(2) * trace(3)
`)
	assert.True(t, getVar(t, env, "missing").IsNull())
	assert.Equal(t, int64(2), getVar(t, env, "extra").Int())
	assert.Equal(t, "1\n2\n3\n", out, "operands and arguments evaluate left to right")
	assert.Equal(t, int64(7), getVar(t, env, "sum").Int())

	_, _, err := runSource(t, "x = 1\nx()")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeNotCallable)
}

func TestMethodCalls(t *testing.T) {
	env, _ := mustRun(t, `
obj = {v: 21}
def obj.double(self)
    return self.v * 2
end
x = obj.double()
def obj.add(self, n)
    self.v = self.v + n
end
obj.add(4)
`)
	assert.Equal(t, int64(42), getVar(t, env, "x").Int())
	v, _ := getVar(t, env, "obj").Dict().Get("v")
	assert.Equal(t, int64(25), v.Int())

	_, _, err := runSource(t, "n = 1\ndef n.f(self) end")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidOperands)
	_, _, err = runSource(t, "o = {}\no.nope()")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeNotCallable)
	_, _, err = runSource(t, "o = {f: 1}\no.f()")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeNotCallable)
	_, _, err = runSource(t, "def ghost.f(self) end")
	assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
}

func TestLoops(t *testing.T) {
	env, _ := mustRun(t, `
s = 0
for (i = 0; i < 5; i = i + 1)
    s = s + i
end
total = 0
for v in [1, 2, 3]
    total = total + v
end
keys = []
for k in {b: 1, a: 2}
    keys + k
end
chars = []
for ch in "hé"
    chars + ch
end
w = 0
while (w < 3)
    w = w + 1
end
`)
	assert.Equal(t, int64(10), getVar(t, env, "s").Int())
	assert.Equal(t, int64(5), getVar(t, env, "i").Int())
	assert.Equal(t, int64(6), getVar(t, env, "total").Int())
	assert.Equal(t, int64(3), getVar(t, env, "v").Int(), "loop variable is bound in the enclosing scope")
	assert.Equal(t, `["b", "a"]`, getVar(t, env, "keys").Repr())
	assert.Equal(t, `["h", "é"]`, getVar(t, env, "chars").Repr())
	assert.Equal(t, int64(3), getVar(t, env, "w").Int())

	_, _, err := runSource(t, "for x in 5\nend")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeNotIterable)
}

func TestForInIteratesSnapshot(t *testing.T) {
	env, _ := mustRun(t, `
l = [1, 2]
n = 0
for v in l
    l + v
    n = n + 1
end
`)
	assert.Equal(t, int64(2), getVar(t, env, "n").Int())
	assert.Equal(t, "[1, 2, 1, 2]", getVar(t, env, "l").Repr())
}

func TestDel(t *testing.T) {
	_, _, err := runSource(t, "x = 1\ndel x\nprint(x)")
	assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)

	env, _ := mustRun(t, `
del neverDefined
d = {a: 1, b: 2, c: 3}
del d.a
del d["b"]
del d.missing
l = [1, 2, 3]
del l[0]
`)
	assert.Equal(t, `{"c": 3}`, getVar(t, env, "d").Repr())
	assert.Equal(t, "[2, 3]", getVar(t, env, "l").Repr())

	_, _, err = runSource(t, "del 1")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidDelete)
	_, _, err = runSource(t, "l = []\ndel l[0]")
	assertRuntimeError(t, err, decl.ErrType, decl.CodeInvalidIndex)
}

func TestStrictMode(t *testing.T) {
	strict := WithStrict(true)

	_, _, err := runSource(t, "if true\n  x = 1\nend", strict)
	rerr := assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
	assert.Equal(t, 2, rerr.Pos.Line)
	assert.Equal(t, 3, rerr.Pos.Col)

	env, _ := mustRun(t, `
x = 0
if true
    x = 1
end
def f()
    y = 2
    return y
end
z = f()
if true
    for v in [1, 2]
    end
end
`, strict)
	assert.Equal(t, int64(1), getVar(t, env, "x").Int())
	assert.Equal(t, int64(2), getVar(t, env, "z").Int())

	_, _, err = runSource(t, fmt.Sprintf(fibLoop, 3), strict)
	assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
	_, _, err = runSource(t, "c = 0\n"+fmt.Sprintf(fibLoop, 3), strict)
	assert.NoError(t, err)
}

func TestImport(t *testing.T) {
	out := &bytes.Buffer{}
	rt := NewRuntime(WithStdout(out))
	modules := map[string]string{
		"lib.math": "module = {}\ndef module.square(self, x)\n return x * x\nend\nmodule.pi = 3.5\nhidden = 1\nprint(\"loading\")",
		"noexport": "x = 1",
		"broken":   "x = ",
		"failing":  "module = {}\nprint(undefinedThing)",
		"selfish":  "import \"selfish\"\nmodule = 1",
		"nested":   "import \"lib.math\"\nmodule = {sq: math.square(3)}",
	}

	env, err := rt.Run("import \"lib.math\"\nx = math.square(4)\npi = math.pi", rt.BasicEnvironment(modules))
	require.NoError(t, err)
	assert.Equal(t, int64(16), getVar(t, env, "x").Int())
	assert.Equal(t, 3.5, getVar(t, env, "pi").Float())
	assert.Equal(t, "loading\n", out.String())
	_, found := env.Get("hidden")
	assert.False(t, found, "module globals stay in the module")

	env, err = rt.Run("import \"nested\"\nsq = nested.sq", rt.BasicEnvironment(modules))
	require.NoError(t, err)
	assert.Equal(t, int64(9), getVar(t, env, "sq").Int())

	tests := []struct {
		name     string
		source   string
		kind     error
		code     string
		contains string
	}{
		{"unknown", `import "nope"`, decl.ErrImport, decl.CodeUnknownModule, "nope"},
		{"no export", `import "noexport"`, decl.ErrImport, decl.CodeMissingExport, "noexport"},
		{"cycle", `import "selfish"`, decl.ErrImport, decl.CodeImportCycle, "selfish -> selfish"},
		{"runtime error in module", `import "failing"`, decl.ErrName, decl.CodeUndefinedVariable, `in module "failing"`},
		{"non string", "import 5", decl.ErrType, decl.CodeInvalidArgument, "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Run(tt.source, rt.BasicEnvironment(modules))
			assertRuntimeError(t, err, tt.kind, tt.code)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	_, err = rt.Run(`import "broken"`, rt.BasicEnvironment(modules))
	require.Error(t, err)
	assert.ErrorIs(t, err, decl.ErrParse)
	assert.Contains(t, err.Error(), `in module "broken"`)

	// Errors inside a module report the import site and keep the inner position
	_, err = rt.Run("x = 1\n  import \"failing\"", rt.BasicEnvironment(modules))
	var merr *decl.ModuleError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "failing", merr.Module)
	pos, ok := decl.ErrorPos(err)
	require.True(t, ok)
	assert.Equal(t, "2:3", pos.LineColStr())
	rerr := assertRuntimeError(t, err, decl.ErrName, decl.CodeUndefinedVariable)
	assert.Equal(t, "2:7", rerr.Pos.LineColStr())
	assert.Contains(t, err.Error(), `in module "failing" imported at 2:3: NameError::UndefinedVariable at 2:7`)

	// Nested imports report the outermost import statement
	modules["outer"] = "\n\nimport \"failing\"\nmodule = 1"
	_, err = rt.Run(`import "outer"`, rt.BasicEnvironment(modules))
	pos, ok = decl.ErrorPos(err)
	require.True(t, ok)
	assert.Equal(t, "1:1", pos.LineColStr())
	assert.Contains(t, err.Error(), `in module "outer" imported at 1:1: in module "failing" imported at 3:1`)
}
