package decl

import (
	"fmt"
	"io"
	"strings"
)

type CodePrinter interface {
	Indent(n int)
	Unindent(n int)
	Print(str string)
	Printf(fmt string, args ...any)
	Println(str string)
}

func WithIndent(n int, cp CodePrinter, block func(cp CodePrinter)) {
	cp.Indent(n)
	defer cp.Unindent(n)
	block(cp)
}

type codePrinter struct {
	indent  int
	atStart bool
	builder strings.Builder
}

func (c *codePrinter) Indent(n int) {
	c.indent += n
}

func (c *codePrinter) Unindent(n int) {
	c.indent -= n
	if c.indent < 0 {
		c.indent = 0
	}
}

// Print writes str, prefixing every new line with the current indent.
func (c *codePrinter) Print(str string) {
	lines := strings.Split(str, "\n")
	for idx, l := range lines {
		if c.atStart && l != "" {
			c.builder.WriteString(c.IndentString())
			c.atStart = false
		}
		c.builder.WriteString(l)
		if idx < len(lines)-1 {
			c.builder.WriteRune('\n')
			c.atStart = true
		}
	}
}

func (c *codePrinter) Println(str string) {
	c.Print(str + "\n")
}

func (c *codePrinter) Printf(format string, args ...any) {
	c.Print(fmt.Sprintf(format, args...))
}

func (c *codePrinter) IndentString() string {
	return strings.Repeat("  ", c.indent)
}

func (c *codePrinter) String() string {
	return c.builder.String()
}

func NewCodePrinter() CodePrinter {
	return &codePrinter{atStart: true}
}

// Sprint renders a node with indentation.
func Sprint(node Node) string {
	cp := &codePrinter{atStart: true}
	node.PrettyPrint(cp)
	return cp.String()
}

func PPrint(node Node) {
	fmt.Println(Sprint(node))
}

func FPrint(w io.Writer, node Node) error {
	_, err := fmt.Fprintln(w, Sprint(node))
	return err
}
