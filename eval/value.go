package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/nio/ir"
)

// Value is a runtime value.
type Value interface {
	value()
	String() string
}

// Int is a 32-bit integer with wrapping arithmetic.
type Int int32

// String is a string value.
type String string

// Unit is the value of statements and of programs with no expressions.
type Unit struct{}

// Closure is a function value. Env is the environment it was created in.
type Closure struct {
	Body   ir.Expr
	Name   string
	Params []string
	Env    EnvID
}

func (Int) value()      {}
func (String) value()   {}
func (Unit) value()     {}
func (*Closure) value() {}

func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v String) String() string { return strconv.Quote(string(v)) }
func (Unit) String() string     { return "()" }

func (c *Closure) String() string {
	name := c.Name
	if name == "" {
		name = "lambda"
	}
	return fmt.Sprintf("<%s(%s)>", name, strings.Join(c.Params, ", "))
}
