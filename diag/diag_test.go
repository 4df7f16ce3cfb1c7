package diag_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sarchlab/calyxgo/diag"
)

func TestKindTitle(t *testing.T) {
	if got, want := diag.KindMalformed.Title(), "Malformed Structure"; got != want {
		t.Fatalf("Title() = %q, want %q", got, want)
	}
}

func TestKindStringFallback(t *testing.T) {
	var k diag.Kind = 999
	if got, want := k.String(), "unknown error"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestNewErrorMessage(t *testing.T) {
	d := diag.New(diag.KindUndefined, "port never driven")
	if !strings.Contains(d.Error(), "port never driven") {
		t.Fatalf("Error() = %q, missing message", d.Error())
	}
	if !strings.HasPrefix(d.Error(), diag.KindUndefined.Title()) {
		t.Fatalf("Error() = %q, missing kind title prefix", d.Error())
	}
}

func TestNewfFormats(t *testing.T) {
	d := diag.Newf(diag.KindUnsupported, "cell %q uses unknown primitive %q", "r0", "std_frobnicate")
	if !strings.Contains(d.Msg, "r0") || !strings.Contains(d.Msg, "std_frobnicate") {
		t.Fatalf("Msg = %q, want both operands interpolated", d.Msg)
	}
}

func TestWithPassAddsContextWithoutMutatingOriginal(t *testing.T) {
	base := diag.New(diag.KindPassAssumption, "expected no control")
	tagged := base.WithPass("well-formed")

	if base.Pass != "" {
		t.Fatalf("WithPass mutated the receiver: Pass = %q", base.Pass)
	}
	if !strings.Contains(tagged.Error(), `pass "well-formed"`) {
		t.Fatalf("Error() = %q, missing pass context", tagged.Error())
	}
}

func TestWithSpanAddsPosition(t *testing.T) {
	d := diag.New(diag.KindParse, "unexpected token").WithSpan("prog.futil", 4, 12)
	if !strings.Contains(d.Error(), "prog.futil:4:12") {
		t.Fatalf("Error() = %q, missing span", d.Error())
	}
}

func TestWithCycleAddsComponentAndCycle(t *testing.T) {
	d := diag.New(diag.KindConvergence, "did not settle").WithCycle("main", 7)
	errMsg := d.Error()
	if !strings.Contains(errMsg, `component "main"`) {
		t.Fatalf("Error() = %q, missing component", errMsg)
	}
	if !strings.Contains(errMsg, "cycle 7") {
		t.Fatalf("Error() = %q, missing cycle", errMsg)
	}
}

func TestUnwrapExposesWrappedError(t *testing.T) {
	inner := errors.New("yaml: line 3: bad indent")
	d := &diag.Diagnostic{Kind: diag.KindParse, Msg: "library load failed", Wrapped: inner}

	if !errors.Is(d, inner) {
		t.Fatal("errors.Is did not see through Unwrap to the wrapped error")
	}
	if !strings.Contains(d.Error(), inner.Error()) {
		t.Fatalf("Error() = %q, missing wrapped error text", d.Error())
	}
}

func TestWithersAreIndependentCopies(t *testing.T) {
	base := diag.New(diag.KindMalformed, "bad")
	a := base.WithPass("p1")
	b := base.WithPass("p2")

	if a.Pass == b.Pass {
		t.Fatalf("WithPass copies alias each other: both report %q", a.Pass)
	}
}
