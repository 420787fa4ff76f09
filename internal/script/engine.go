// Package script compiles JavaScript filter expressions that select catalog
// items, e.g. `item.price < 20 && item.brand == "Sakura"`.
package script

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// DefaultTimeout bounds a single predicate evaluation.
const DefaultTimeout = 250 * time.Millisecond

// ErrEmptyExpression is returned when compiling a blank expression.
var ErrEmptyExpression = errors.New("empty filter expression")

// ConsoleHandler is a function that handles console output from JavaScript.
type ConsoleHandler func(level, message string)

// blockedGlobals are hidden from filter expressions.
var blockedGlobals = []string{
	"require",
	"process",
	"global",
	"globalThis",
	"module",
	"exports",
	"eval",
	"Function",
}

// Engine compiles filter expressions into predicates.
type Engine struct {
	timeout        time.Duration
	consoleHandler ConsoleHandler
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets how long a single evaluation may run before it is interrupted.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithConsoleHandler routes console.log and friends to handler.
func WithConsoleHandler(handler ConsoleHandler) Option {
	return func(e *Engine) {
		e.consoleHandler = handler
	}
}

// NewEngine creates a new filter engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile parses expr. Syntax errors are reported here rather than on Match.
func (e *Engine) Compile(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}

	program, err := goja.Compile("where", expr, true)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}

	return &Predicate{
		source:  expr,
		program: program,
		runtime: e.newRuntime(),
		timeout: e.timeout,
	}, nil
}

// newRuntime builds a runtime with the console wired and unsafe globals removed.
func (e *Engine) newRuntime() *goja.Runtime {
	rt := goja.New()
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	for _, name := range blockedGlobals {
		rt.Set(name, goja.Undefined())
	}

	console := rt.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		level := level
		console.Set(level, func(call goja.FunctionCall) goja.Value {
			if e.consoleHandler != nil {
				e.consoleHandler(level, formatArgs(call.Arguments))
			}
			return goja.Undefined()
		})
	}
	rt.Set("console", console)

	return rt
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg.Export())
	}
	return strings.Join(parts, " ")
}
