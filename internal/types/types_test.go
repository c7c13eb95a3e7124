package types

import "testing"

func TestWideningChain(t *testing.T) {
	tests := []struct {
		from, to *Type
		want     bool
	}{
		{CharType(), IntType(), true},
		{IntType(), FloatType(), true},
		{CharType(), FloatType(), true},
		{IntType(), CharType(), false},
		{FloatType(), IntType(), false},
		{IntType(), IntType(), true},
		{VoidType(), IntType(), false},
	}
	for _, tt := range tests {
		if got := Widens(tt.from, tt.to); got != tt.want {
			t.Errorf("Widens(%s, %s) = %v, want %v", Describe(tt.from), Describe(tt.to), got, tt.want)
		}
	}
}

func TestStructEqualityIsNominal(t *testing.T) {
	a := NewStruct("Point", []Member{{Name: "x", Type: IntType()}})
	b := NewStruct("Point", []Member{{Name: "x", Type: IntType()}, {Name: "y", Type: IntType()}})
	c := NewStruct("Vec", []Member{{Name: "x", Type: IntType()}})
	if !Equal(a, b) {
		t.Error("structs with the same name but different members should compare equal (nominal typing)")
	}
	if Equal(a, c) {
		t.Error("structs with different names should not compare equal")
	}
}

func TestArrayEqualityIgnoresElementConst(t *testing.T) {
	a := NewArray(CharType(), 5)
	b := NewArray(WithConst(CharType(), true), 5)
	if !Equal(a, b) {
		t.Error("array equality should ignore the element's const qualifier")
	}
}

func TestResolveArraySizePriority(t *testing.T) {
	explicit := NewArray(IntType(), 0)
	ResolveArraySize(explicit, -1, true, 7)
	if explicit.Size != 7 {
		t.Errorf("explicit size should win, got %d", explicit.Size)
	}

	fromString := NewArray(CharType(), 0)
	ResolveArraySize(fromString, 3, false, 0)
	if fromString.Size != 4 {
		t.Errorf("string-literal-derived size should be len+1, got %d", fromString.Size)
	}

	defaulted := NewArray(IntType(), 0)
	ResolveArraySize(defaulted, -1, false, 0)
	if defaulted.Size != 10 {
		t.Errorf("default array size should be 10, got %d", defaulted.Size)
	}
}

func TestPrintDescriptors(t *testing.T) {
	tests := []struct {
		t    *Type
		want string
	}{
		{IntType(), "I"},
		{CharType(), "C"},
		{FloatType(), "F"},
		{VoidType(), "V"},
		{NewArray(IntType(), 10), "[I"},
		{NewStruct("Point", nil), "Ljava/lang/Object;"},
		{NewFunction(VoidType(), []*Type{IntType(), FloatType()}), "(IF)V"},
	}
	for _, tt := range tests {
		if got := Print(tt.t); got != tt.want {
			t.Errorf("Print(%s) = %q, want %q", Describe(tt.t), got, tt.want)
		}
	}
}

func TestIsIntegralExcludesFloat(t *testing.T) {
	if !IsIntegral(IntType()) || !IsIntegral(CharType()) {
		t.Error("int and char should be integral")
	}
	if IsIntegral(FloatType()) {
		t.Error("float should not be integral")
	}
}
