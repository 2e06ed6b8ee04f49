// Package visitor implements the Visitor Pipeline (spec §4.6): an ordered,
// de-duplicated set of tree rewrites/validations applied after parsing and
// before compilation. Grounded on CWBudde/go-dws's internal/semantic/passes
// package, which runs an ordered list of Pass objects over a bound tree;
// here a Visitor both rewrites and validates a spec.exprast tree.
package visitor

import (
	"fmt"

	"github.com/exprlang/exprlang/internal/exprast"
)

// Visitor transforms (or merely validates) a bound expression tree. It
// returns the (possibly rewritten) node, or an error to abort binding.
type Visitor interface {
	// Name identifies the visitor for de-duplication in Pipeline.Add.
	Name() string
	Visit(node exprast.Node) (exprast.Node, error)
}

// Func adapts a plain function to the Visitor interface.
type Func struct {
	FuncName string
	Fn       func(exprast.Node) (exprast.Node, error)
}

func (f *Func) Name() string                              { return f.FuncName }
func (f *Func) Visit(n exprast.Node) (exprast.Node, error) { return f.Fn(n) }

// Pipeline is the ordered, de-duplicated collection of visitors run after a
// successful parse. Passes execute in insertion order (spec §5 ordering
// contract).
type Pipeline struct {
	order  []string
	byName map[string]Visitor
}

// NewDefaultPipeline returns a Pipeline seeded with the reflection-disabling
// visitor (spec §4.6), matching the core's secure-by-default posture.
func NewDefaultPipeline() *Pipeline {
	p := &Pipeline{byName: make(map[string]Visitor)}
	p.Add(NewReflectionGuard())
	return p
}

// Add appends v to the pipeline. Re-adding a name already present replaces
// it in place rather than duplicating the pass.
func (p *Pipeline) Add(v Visitor) {
	if _, exists := p.byName[v.Name()]; !exists {
		p.order = append(p.order, v.Name())
	}
	p.byName[v.Name()] = v
}

// Remove drops the named visitor, if present. Used by the embedding API's
// "enable reflection" toggle to remove the default guard.
func (p *Pipeline) Remove(name string) {
	delete(p.byName, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Run applies every visitor in insertion order, threading the (possibly
// rewritten) tree through each.
func (p *Pipeline) Run(root exprast.Node) (exprast.Node, error) {
	current := root
	for _, name := range p.order {
		v := p.byName[name]
		next, err := v.Visit(current)
		if err != nil {
			return nil, fmt.Errorf("visitor %q: %w", name, err)
		}
		current = next
	}
	return current, nil
}

// ReflectionGuardName is the well-known name of the default reflection
// disabling pass, so embedders can Pipeline.Remove(ReflectionGuardName) to
// opt out (spec §4.6 "An opt-in method removes that visitor").
const ReflectionGuardName = "disable-reflection"

// blockedHostSurface lists the introspection entry points the guard forbids
// a bound tree from reaching, per spec §4.6 ("type-of-type, assembly graph,
// member-info, etc."). Expressed here as blocked call/member names since
// the core has no notion of a host "Type" object beyond what reflection
// would expose.
var blockedHostSurface = map[string]bool{
	"GetType":     true,
	"Reflect":     true,
	"TypeOf":      true,
	"Assembly":    true,
	"MemberInfo":  true,
}

// NewReflectionGuard returns the default visitor that fails binding if the
// tree references the host's introspection surface.
func NewReflectionGuard() Visitor {
	return &Func{
		FuncName: ReflectionGuardName,
		Fn: func(n exprast.Node) (exprast.Node, error) {
			if err := walkForbid(n); err != nil {
				return nil, err
			}
			return n, nil
		},
	}
}

func walkForbid(n exprast.Node) error {
	switch v := n.(type) {
	case nil:
		return nil
	case *exprast.Call:
		if blockedHostSurface[v.Name] {
			return fmt.Errorf("reflection surface %q is disabled", v.Name)
		}
		if v.Receiver != nil {
			if err := walkForbid(v.Receiver); err != nil {
				return err
			}
		}
		for _, a := range v.Args {
			if err := walkForbid(a); err != nil {
				return err
			}
		}
	case *exprast.Member:
		if blockedHostSurface[v.Name] {
			return fmt.Errorf("reflection surface %q is disabled", v.Name)
		}
		return walkForbid(v.Receiver)
	case *exprast.DynamicCall:
		if blockedHostSurface[v.Name] {
			return fmt.Errorf("reflection surface %q is disabled", v.Name)
		}
		for _, a := range v.Args {
			if err := walkForbid(a); err != nil {
				return err
			}
		}
		return walkForbid(v.Receiver)
	case *exprast.DynamicGet:
		if blockedHostSurface[v.Name] {
			return fmt.Errorf("reflection surface %q is disabled", v.Name)
		}
		return walkForbid(v.Receiver)
	case *exprast.Binary:
		if err := walkForbid(v.Left); err != nil {
			return err
		}
		return walkForbid(v.Right)
	case *exprast.Unary:
		return walkForbid(v.Operand)
	case *exprast.Conditional:
		if err := walkForbid(v.Cond); err != nil {
			return err
		}
		if err := walkForbid(v.Then); err != nil {
			return err
		}
		return walkForbid(v.Else)
	case *exprast.Cast:
		return walkForbid(v.Operand)
	case *exprast.Index:
		if err := walkForbid(v.Receiver); err != nil {
			return err
		}
		return walkForbid(v.Index_)
	case *exprast.Assign:
		if err := walkForbid(v.Target); err != nil {
			return err
		}
		return walkForbid(v.Value)
	case *exprast.Lambda:
		return walkForbid(v.Body)
	case *exprast.TypeTest:
		return walkForbid(v.Operand)
	}
	return nil
}
