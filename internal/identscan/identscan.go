// Package identscan is the Identifier Detector (spec §4.8): a best-effort
// pre-parse pass over an expression's token stream that classifies every
// bare identifier without binding or validating member/call chains.
// Grounded on the parser's own tokenizer reuse pattern — a throwaway scan
// that only classifies, never binds, the way CWBudde/go-dws's
// internal/parser re-lexes source for its own IDE-preflight tooling.
package identscan

import (
	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/jsonvalue"
	"github.com/exprlang/exprlang/internal/lexer"
	"github.com/exprlang/exprlang/internal/token"
)

// IdentifiersInfo is the detector's output (spec §3): every identifier token
// in the text classified as a known registered identifier, a known type
// alias, or an unknown name a caller would have to supply as a parameter.
// Membership/call chains are not validated — `.Whatever` after a receiver is
// never inspected, since a pre-parse scan has no static type to resolve it
// against.
type IdentifiersInfo struct {
	Identifiers []string
	Types       []string
	Unknown     []string
}

// Detect scans text's token stream and classifies every standalone
// identifier against registry. A name immediately following a '.' is a
// member/method name, not a referenced identifier, and is skipped.
func Detect(text string, registry *exprtypes.Registry) IdentifiersInfo {
	lex := lexer.New(text)
	info := IdentifiersInfo{}
	seen := map[string]bool{}

	prev := token.Token{}
	for {
		tok := lex.Next()
		if tok.Type == token.EOF {
			break
		}
		if tok.Type == token.IDENT && prev.Type != token.DOT {
			classify(tok.Literal, registry, &info, seen)
		}
		prev = tok
	}
	return info
}

// JSON renders info as an order-preserving JSON object — identifiers,
// types, and unknowns each as an array in the order they were first seen —
// so a host UI or log sink gets a stable, diffable shape rather than one at
// the mercy of Go's (or encoding/json's) map ordering.
func (info IdentifiersInfo) JSON() *jsonvalue.Value {
	obj := jsonvalue.NewObject()
	obj.ObjectSet("identifiers", jsonvalue.StringArray(info.Identifiers))
	obj.ObjectSet("types", jsonvalue.StringArray(info.Types))
	obj.ObjectSet("unknown", jsonvalue.StringArray(info.Unknown))
	return obj
}

func classify(name string, registry *exprtypes.Registry, info *IdentifiersInfo, seen map[string]bool) {
	key := "id:" + registry.Comparer().Canonical(name)
	if registry.LookupIdentifier(name) != nil {
		if !seen[key] {
			seen[key] = true
			info.Identifiers = append(info.Identifiers, name)
		}
		return
	}
	tkey := "ty:" + registry.Comparer().Canonical(name)
	if registry.LookupType(name) != nil {
		if !seen[tkey] {
			seen[tkey] = true
			info.Types = append(info.Types, name)
		}
		return
	}
	ukey := "un:" + registry.Comparer().Canonical(name)
	if !seen[ukey] {
		seen[ukey] = true
		info.Unknown = append(info.Unknown, name)
	}
}
