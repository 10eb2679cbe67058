package ir

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Linkage classifies symbol visibility.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
	LinkagePrivate
	LinkageWeak
	LinkageWeakODR
	LinkageLinkOnce
	LinkageLinkOnceODR
	LinkageCommon
	LinkageAvailableExternally
	LinkageExternWeak
	LinkageAppending
)

var linkageNames = [...]string{
	"external", "internal", "private", "weak", "weak_odr", "linkonce",
	"linkonce_odr", "common", "available_externally", "extern_weak", "appending",
}

func (l Linkage) String() string {
	if int(l) < len(linkageNames) {
		return linkageNames[l]
	}
	return "linkage?"
}

// ParseLinkage maps an LLVM linkage keyword to a Linkage.
func ParseLinkage(s string) (Linkage, bool) {
	if s == "" {
		return LinkageExternal, true
	}
	for i, name := range linkageNames {
		if name == s {
			return Linkage(i), true
		}
	}
	return LinkageExternal, false
}

// Attr is a parameter attribute.
type Attr uint8

const (
	AttrByVal Attr = iota + 1
	AttrNoAlias
	AttrNonNull
	AttrSRet
	AttrZExt
	AttrSExt
)

// Param is a formal parameter.
type Param struct {
	Name  string
	Type  *Type
	Attrs []Attr
	// ByValType is the pointee copied for byval parameters; nil means the
	// pointer's element type.
	ByValType *Type
}

// IsStructByValue reports whether the parameter is a pointer passed with
// by-value copy semantics.
func (p *Param) IsStructByValue() bool {
	if !p.Type.IsPointer() {
		return false
	}
	for _, a := range p.Attrs {
		if a == AttrByVal {
			return true
		}
	}
	return false
}

// ByValPointee returns the type copied for a byval parameter.
func (p *Param) ByValPointee() *Type {
	if p.ByValType != nil {
		return p.ByValType
	}
	return p.Type.Elem
}

// SourceLocation is a lexical scope in the original source.
type SourceLocation struct {
	Name   string
	File   string
	Line   int
	Col    int
	Parent *SourceLocation
}

func (l *SourceLocation) String() string {
	if l == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// SourceVariable is a variable declared in a SourceFunction. Static is set
// when the variable's value is known without executing the function.
type SourceVariable struct {
	Name   string
	Type   *Type
	Line   int
	Static *Operand
}

// SourceFunction is the debug-info view of a function.
type SourceFunction struct {
	Name      string
	Scope     *SourceLocation
	StartLine int
	EndLine   int
	Variables []SourceVariable
}

// BodyParser decodes a function body on demand.
type BodyParser interface {
	ParseBody(f *Func) error
}

// Func is one IR function definition. Blocks are indexed densely from 0 and
// must not change once lowering has started.
type Func struct {
	Name    string
	Params  []*Param
	Result  *Type
	Blocks  []Block
	Linkage Linkage
	Source  *SourceFunction

	body      BodyParser
	parseOnce sync.Once
	parseErr  error

	loopsOnce sync.Once
	loops     []Loop
}

// SetBodyParser installs a deferred body decoder run by EnsureParsed.
func (f *Func) SetBodyParser(p BodyParser) {
	f.body = p
}

// EnsureParsed completes deferred body decoding exactly once and assigns
// implicit names to anything left unnamed.
func (f *Func) EnsureParsed() error {
	f.parseOnce.Do(func() {
		if f.body != nil {
			if err := f.body.ParseBody(f); err != nil {
				f.parseErr = fmt.Errorf("function %s: parse body: %w", f.Name, err)
				return
			}
		}
		f.AssignImplicitNames()
	})
	return f.parseErr
}

// Loops returns the natural loops of f, computed on first use.
func (f *Func) Loops() []Loop {
	f.loopsOnce.Do(func() {
		f.loops = FindLoops(f)
	})
	out := make([]Loop, len(f.loops))
	for i, l := range f.loops {
		out[i] = Loop{Header: l.Header, Body: append([]int(nil), l.Body...)}
	}
	return out
}

// Block returns block idx or nil.
func (f *Func) Block(idx int) *Block {
	if idx < 0 || idx >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[idx]
}

// ReturnsAggregate reports whether calls pass a hidden output pointer.
func (f *Func) ReturnsAggregate() bool {
	return f.Result.IsAggregate()
}

// IsDeclaration reports whether f has no body.
func (f *Func) IsDeclaration() bool {
	return len(f.Blocks) == 0 && f.body == nil
}

// AssignImplicitNames numbers unnamed parameters, blocks and value
// instructions in order, skipping numbers that clash with explicit block names.
func (f *Func) AssignImplicitNames() {
	next := 0
	for _, p := range f.Params {
		if p.Name == "" {
			p.Name = strconv.Itoa(next)
			next++
		}
	}

	explicit := make(map[string]struct{}, len(f.Blocks))
	for i := range f.Blocks {
		if f.Blocks[i].Name != "" {
			explicit[f.Blocks[i].Name] = struct{}{}
		}
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if bb.Name == "" {
			for {
				bb.Name = strconv.Itoa(next)
				next++
				if _, clash := explicit[bb.Name]; !clash {
					break
				}
			}
		}
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.HasValue() && ins.Name == "" {
				ins.Name = strconv.Itoa(next)
				next++
			}
		}
		if bb.Term.HasValue() && bb.Term.Invoke.Name == "" {
			bb.Term.Invoke.Name = strconv.Itoa(next)
			next++
		}
	}
}

func (f *Func) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("Func %s(%s) {%d blocks}", f.Name, strings.Join(names, ", "), len(f.Blocks))
}
