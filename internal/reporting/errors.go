// Package reporting formats the core's error taxonomy (spec §7): ParseError,
// InvocationError, ConfigurationError, and DynamicBindingError. Grounded on
// CWBudde/go-dws's internal/errors.CompilerError — same source-line-plus-caret
// rendering, generalized to four typed error kinds instead of one.
package reporting

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/exprlang/exprlang/internal/token"
)

// ParseError is a syntactic or binding failure at a known position:
// unknown identifier, ambiguous overload, type mismatch, reserved-word
// misuse, assignment to a non-l-value, or assignment disabled by policy.
type ParseError struct {
	Message string
	Source  string
	Pos     token.Position
}

func NewParseError(pos token.Position, source, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Source: source, Message: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string { return e.Format(false) }

// Format renders the error with a source line and a caret pointing at Pos.
// When color is true, the caret and message use fatih/color's ANSI styling,
// the way the teacher's CompilerError.Format(color bool) does.
func (e *ParseError) Format(colorize bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("parse error at %s\n", e.Pos))

	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		caret := "^"
		if colorize {
			caret = color.New(color.FgRed, color.Bold).Sprint("^")
		}
		sb.WriteString(caret)
		sb.WriteString("\n")
	}

	msg := e.Message
	if colorize {
		msg = color.New(color.Bold).Sprint(msg)
	}
	sb.WriteString(msg)
	return sb.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// InvocationError wraps a failure raised during execution of a compiled
// callable. Cause is the original error/panic value from user code or the
// host reflection adapter, unwrapped from any compilation-substrate wrapper
// so its message (and, where the host supports it, its stack) propagates
// unchanged, per spec §4.7/§7.
type InvocationError struct {
	Cause error
}

func (e *InvocationError) Error() string { return e.Cause.Error() }
func (e *InvocationError) Unwrap() error { return e.Cause }

// ConfigurationError is caller misuse of the registration API: a nil name or
// type, or a parameter/argument count mismatch.
type ConfigurationError struct {
	Message string
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string { return e.Message }

// DynamicBindingError is a dynamic-member lookup failure at invocation time
// on an instance that previously type-checked as dynamic-capable.
type DynamicBindingError struct {
	Member string
	Cause  error
}

func NewDynamicBindingError(member string, cause error) *DynamicBindingError {
	return &DynamicBindingError{Member: member, Cause: cause}
}

func (e *DynamicBindingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dynamic member %q: %s", e.Member, e.Cause)
	}
	return fmt.Sprintf("dynamic member %q not found", e.Member)
}

func (e *DynamicBindingError) Unwrap() error { return e.Cause }
