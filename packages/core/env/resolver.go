package env

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/apiflow/packages/builtin"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// SaveAsPrefix marks a capture instruction. Such tokens are never
// substituted; the assertion phase consumes them.
const SaveAsPrefix = "saveAs:"

// ErrVariableNotFound is wrapped by every VariableError.
var ErrVariableNotFound = errors.New("variable not found")

// VariableError reports a {{name}} token that no layer could resolve.
type VariableError struct {
	Name string
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("Variable %s not found", e.Name)
}

func (e *VariableError) Unwrap() error {
	return ErrVariableNotFound
}

// Resolver substitutes {{...}} tokens using a Context and the builtin
// generators.
type Resolver struct {
	ctx   *Context
	funcs *builtin.Registry
}

func NewResolver(ctx *Context) *Resolver {
	if ctx == nil {
		ctx = NewContext()
	}
	return &Resolver{
		ctx:   ctx,
		funcs: builtin.NewRegistry(),
	}
}

// WithRegistry replaces the generator registry.
func (r *Resolver) WithRegistry(funcs *builtin.Registry) *Resolver {
	r.funcs = funcs
	return r
}

func (r *Resolver) Context() *Context {
	return r.ctx
}

// Resolve replaces every {{...}} token in input. A string without "{{"
// is returned unchanged. The first unresolvable token fails the whole
// string.
func (r *Resolver) Resolve(input string) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	var firstErr error
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		resolved, err := r.resolveToken(match)
		if err != nil {
			firstErr = err
			return match
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (r *Resolver) resolveToken(match string) (string, error) {
	expr := strings.TrimSpace(match[2 : len(match)-2])

	if strings.HasPrefix(expr, SaveAsPrefix) {
		return match, nil
	}

	if strings.HasPrefix(expr, "random.") {
		if result, ok := r.funcs.Call(expr); ok {
			return result, nil
		}
	}

	if v, ok := r.ctx.Lookup(expr); ok {
		return v.String(), nil
	}

	return "", &VariableError{Name: expr}
}

// ResolveValue interpolates every string leaf of v. Mapping keys are left
// as they are; all other scalars pass through.
func (r *Resolver) ResolveValue(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		resolved, err := r.Resolve(s)
		if err != nil {
			return value.Undefined, err
		}
		return value.NewString(resolved), nil
	case value.KindSequence:
		items := v.Items()
		out := make([]value.Value, len(items))
		for i, item := range items {
			resolved, err := r.ResolveValue(item)
			if err != nil {
				return value.Undefined, err
			}
			out[i] = resolved
		}
		return value.NewSequence(out...), nil
	case value.KindMapping:
		src := v.Map()
		out := value.NewMap()
		for _, k := range src.Keys() {
			item, _ := src.Get(k)
			resolved, err := r.ResolveValue(item)
			if err != nil {
				return value.Undefined, err
			}
			out.Set(k, resolved)
		}
		return value.NewMapping(out), nil
	default:
		return v, nil
	}
}

// Interpolate resolves all tokens in v against ctx.
func Interpolate(v value.Value, ctx *Context) (value.Value, error) {
	return NewResolver(ctx).ResolveValue(v)
}

// InterpolateString resolves all tokens in s against ctx.
func InterpolateString(s string, ctx *Context) (string, error) {
	return NewResolver(ctx).Resolve(s)
}

// UnresolvedVariables lists plain variable names in input that ctx cannot
// resolve, in order of appearance. Generators and saveAs markers are
// never reported.
func UnresolvedVariables(input string, ctx *Context) []string {
	r := NewResolver(ctx)
	var names []string
	for _, m := range variablePattern.FindAllString(input, -1) {
		if _, err := r.resolveToken(m); err != nil {
			var verr *VariableError
			if errors.As(err, &verr) {
				names = append(names, verr.Name)
			}
		}
	}
	return names
}
