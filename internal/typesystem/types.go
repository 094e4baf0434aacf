package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the interface for all inferred types attached to the AST.
type Type interface {
	String() string
}

// Primitive constructor names.
const (
	String  = "string"
	Number  = "number"
	Boolean = "boolean"
	Char    = "char"
	Unit    = "()"
)

// TVar represents a type variable (e.g. 'a, 'b).
type TVar struct {
	Name string
}

func (t TVar) String() string { return "'" + t.Name }

// TCon represents a type constant (e.g. number, string).
type TCon struct {
	Name string
}

func (t TCon) String() string { return t.Name }

// TFunc represents a single-argument function type.
type TFunc struct {
	Param  Type
	Result Type
}

func (t TFunc) String() string {
	param := typeString(t.Param)
	if _, ok := t.Param.(TFunc); ok {
		param = "(" + param + ")"
	}
	return param + " -> " + typeString(t.Result)
}

// TList represents a list type.
type TList struct {
	Element Type
}

func (t TList) String() string { return "list<" + typeString(t.Element) + ">" }

// TMap represents a hash map type.
type TMap struct {
	Key   Type
	Value Type
}

func (t TMap) String() string {
	return "hash<" + typeString(t.Key) + ", " + typeString(t.Value) + ">"
}

// TRecord represents a structure type.
type TRecord struct {
	Fields map[string]Type
}

func (t TRecord) String() string {
	var parts []string
	for _, name := range t.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s is %s", name, typeString(t.Fields[name])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FieldNames returns the field names in sorted order.
func (t TRecord) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TVariant represents a tagged union type.
type TVariant struct {
	Cases map[string]Type
}

func (t TVariant) String() string {
	names := make([]string, 0, len(t.Cases))
	for name := range t.Cases {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + typeString(t.Cases[name])
	}
	return strings.Join(parts, " | ")
}

func typeString(t Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// IsPrimitive reports whether values of t can be compared with the
// target's native strict equality.
func IsPrimitive(t Type) bool {
	c, ok := t.(TCon)
	if !ok {
		return false
	}
	switch c.Name {
	case String, Number, Boolean, Char, Unit:
		return true
	}
	return false
}

// IsOpaque reports whether t is a type variable or a variant. A presence
// value whose payload has such a type must keep its tag at runtime.
func IsOpaque(t Type) bool {
	switch t.(type) {
	case TVar, TVariant:
		return true
	}
	return false
}

// IsUnit reports whether t is the unit type.
func IsUnit(t Type) bool {
	c, ok := t.(TCon)
	return ok && c.Name == Unit
}

// Record returns t as a structure type.
func Record(t Type) (TRecord, bool) {
	r, ok := t.(TRecord)
	return r, ok
}
