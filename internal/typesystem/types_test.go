package typesystem

import "testing"

func TestPredicates(t *testing.T) {
	tests := []struct {
		typ       Type
		primitive bool
		opaque    bool
	}{
		{TCon{Name: Number}, true, false},
		{TCon{Name: String}, true, false},
		{TCon{Name: Unit}, true, false},
		{TCon{Name: "regex"}, false, false},
		{TVar{Name: "a"}, false, true},
		{TVariant{Cases: map[string]Type{"A": TCon{Name: Number}}}, false, true},
		{TList{Element: TCon{Name: Number}}, false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		if got := IsPrimitive(tt.typ); got != tt.primitive {
			t.Errorf("IsPrimitive(%v) = %v, want %v", tt.typ, got, tt.primitive)
		}
		if got := IsOpaque(tt.typ); got != tt.opaque {
			t.Errorf("IsOpaque(%v) = %v, want %v", tt.typ, got, tt.opaque)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TFunc{Param: TCon{Name: Number}, Result: TCon{Name: String}}, "number -> string"},
		{TFunc{Param: TFunc{Param: TVar{Name: "a"}, Result: TVar{Name: "b"}}, Result: TVar{Name: "b"}}, "('a -> 'b) -> 'b"},
		{TRecord{Fields: map[string]Type{"b": TCon{Name: Number}, "a": TCon{Name: String}}}, "{a is string, b is number}"},
		{TVariant{Cases: map[string]Type{"Some": TVar{Name: "a"}, "None": TCon{Name: Unit}}}, "None () | Some 'a"},
		{TMap{Key: TCon{Name: String}, Value: TList{Element: TCon{Name: Number}}}, "hash<string, list<number>>"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
