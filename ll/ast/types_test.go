package ast

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{Void, "void"},
		{I1, "i1"},
		{Double, "double"},
		{Ptr, "ptr"},
		{PointerTo(&Type{Kind: TypeNamed, Name: "Qubit"}), "%Qubit*"},
		{&Type{Kind: TypeArray, Len: 4, Elem: I8}, "[4 x i8]"},
		{&Type{Kind: TypeStruct, Fields: []*Type{I64, Double}}, "{ i64, double }"},
		{&Type{Kind: TypeFunc, Ret: I1, Fields: []*Type{Ptr}, Variadic: true}, "i1 (ptr, ...)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeEqual(t *testing.T) {
	qubitPtr := PointerTo(&Type{Kind: TypeNamed, Name: "Qubit"})
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same int", Int(64), I64, true},
		{"different width", I32, I64, false},
		{"named pointers", qubitPtr, PointerTo(&Type{Kind: TypeNamed, Name: "Qubit"}), true},
		{"typed vs opaque", qubitPtr, Ptr, false},
		{"opaque pointers", Ptr, &Type{Kind: TypePtr}, true},
		{"func types", &Type{Kind: TypeFunc, Ret: Void, Fields: []*Type{Ptr}}, &Type{Kind: TypeFunc, Ret: Void, Fields: []*Type{Ptr}}, true},
		{"func arity", &Type{Kind: TypeFunc, Ret: Void}, &Type{Kind: TypeFunc, Ret: Void, Fields: []*Type{Ptr}}, false},
		{"nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	a := Attributes{"entry_point": "", "required_num_qubits": "2"}
	if !a.Has("entry_point") || a.Has("missing") {
		t.Error("Has mismatch")
	}
	if v, ok := a.Get("required_num_qubits"); !ok || v != "2" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if got := a.String(); got != `"entry_point" "required_num_qubits"="2"` {
		t.Errorf("String() = %s", got)
	}
}

func TestModuleFlags(t *testing.T) {
	m := NewModule()
	m.NamedMetadata["llvm.module.flags"] = []int{0, 1, 2}
	m.Metadata[0] = &MDNode{Elems: []MDValue{{Kind: MDInt, Int: 1}, {Kind: MDString, Str: "qir_major_version"}, {Kind: MDInt, Int: 1}}}
	m.Metadata[1] = &MDNode{Elems: []MDValue{{Kind: MDInt, Int: 1}, {Kind: MDString, Str: "dynamic_qubit_management"}, {Kind: MDInt, Int: 1}}}
	m.Metadata[2] = &MDNode{Specialized: "DIFile"}

	flags := m.ModuleFlags()
	if len(flags) != 2 {
		t.Fatalf("got %d flags", len(flags))
	}
	if flags["qir_major_version"].Int != 1 || !flags["dynamic_qubit_management"].Bool() {
		t.Errorf("flags = %+v", flags)
	}
}
