package valgen

import "testing"

func TestMakeConstGenAlwaysReturnsConstant(t *testing.T) {
	gen := MakeConstGen(7)
	for i := 0; i < 3; i++ {
		if got := gen(); got != 7 {
			t.Fatalf("call %d: got %d, want 7", i, got)
		}
	}
}

func TestMakeIncreasingGenStartsAtStartAndIncrements(t *testing.T) {
	gen := MakeIncreasingGen(5)
	want := []uint64{5, 6, 7, 8}
	for i, w := range want {
		if got := gen(); got != w {
			t.Fatalf("call %d: got %d, want %d", i, got, w)
		}
	}
}

func TestMakeIncreasingGenFromZero(t *testing.T) {
	gen := MakeIncreasingGen(0)
	if got := gen(); got != 0 {
		t.Fatalf("first call: got %d, want 0", got)
	}
	if got := gen(); got != 1 {
		t.Fatalf("second call: got %d, want 1", got)
	}
}
