package token

import (
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"comment only",
			"; ModuleID = 'bell'\n",
			nil,
		},
		{
			"assignment",
			`source_filename = "bell"`,
			[]Token{{"source_filename", Ident, 1}, {"=", Punct, 1}, {"bell", String, 1}},
		},
		{
			"typed pointer",
			"%Qubit* null",
			[]Token{{"Qubit", LocalIdent, 1}, {"*", Punct, 1}, {"null", Ident, 1}},
		},
		{
			"global call",
			"call void @__quantum__qis__h__body(%Qubit* null)",
			[]Token{
				{"call", Ident, 1}, {"void", Ident, 1}, {"__quantum__qis__h__body", GlobalIdent, 1},
				{"(", Punct, 1}, {"Qubit", LocalIdent, 1}, {"*", Punct, 1}, {"null", Ident, 1}, {")", Punct, 1},
			},
		},
		{
			"labels",
			"entry:\n3:\n\"quoted label\":",
			[]Token{{"entry", LabelDef, 1}, {"3", LabelDef, 2}, {"quoted label", LabelDef, 3}},
		},
		{
			"numbers",
			"42 -7 1.5 -2.0e+00 0x3FF0000000000000",
			[]Token{{"42", Int, 1}, {"-7", Int, 1}, {"1.5", Float, 1}, {"-2.0e+00", Float, 1}, {"0x3FF0000000000000", Float, 1}},
		},
		{
			"attribute group",
			`attributes #0 = { "entry_point" "required_num_qubits"="2" }`,
			[]Token{
				{"attributes", Ident, 1}, {"0", AttrRef, 1}, {"=", Punct, 1}, {"{", Punct, 1},
				{"entry_point", String, 1}, {"required_num_qubits", String, 1}, {"=", Punct, 1}, {"2", String, 1},
				{"}", Punct, 1},
			},
		},
		{
			"metadata",
			`!llvm.module.flags = !{!0}` + "\n" + `!0 = !{i32 1, !"qir_major_version", i32 1}`,
			[]Token{
				{"llvm.module.flags", MetaIdent, 1}, {"=", Punct, 1}, {"!{", Punct, 1}, {"0", MetaIdent, 1}, {"}", Punct, 1},
				{"0", MetaIdent, 2}, {"=", Punct, 2}, {"!{", Punct, 2}, {"i32", Ident, 2}, {"1", Int, 2}, {",", Punct, 2},
				{"qir_major_version", MetaString, 2}, {",", Punct, 2}, {"i32", Ident, 2}, {"1", Int, 2}, {"}", Punct, 2},
			},
		},
		{
			"byte string with escapes",
			`c"0_r\00" c"a\\b"`,
			[]Token{{"0_r\x00", CString, 1}, {`a\b`, CString, 1}},
		},
		{
			"quoted names",
			`@"weird name" %"x y"`,
			[]Token{{"weird name", GlobalIdent, 1}, {"x y", LocalIdent, 1}},
		},
		{
			"varargs",
			"(i8*, ...)",
			[]Token{{"(", Punct, 1}, {"i8", Ident, 1}, {"*", Punct, 1}, {",", Punct, 1}, {"...", Punct, 1}, {")", Punct, 1}},
		},
		{
			"numbered local",
			"%0 = add i64 %1, 2",
			[]Token{{"0", LocalIdent, 1}, {"=", Punct, 1}, {"add", Ident, 1}, {"i64", Ident, 1}, {"1", LocalIdent, 1}, {",", Punct, 1}, {"2", Int, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d", len(got), got, len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"unterminated string", "\n\"abc", 2},
		{"string across lines", "\"ab\ncd\"", 1},
		{"bare sigil", "@ x", 1},
		{"unexpected char", "define ^", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("error %T is not *Error", err)
			}
			if te.Line != tt.line {
				t.Errorf("line = %d, want %d", te.Line, tt.line)
			}
		})
	}
}

func TestTokenIs(t *testing.T) {
	tok := Token{"=", Punct, 1}
	if !tok.Is(Punct, "=") {
		t.Error("expected match")
	}
	if tok.Is(Ident, "=") {
		t.Error("type should not match")
	}
}
