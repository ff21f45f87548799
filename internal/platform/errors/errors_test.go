package errors

import (
	stderrs "errors"
	"fmt"
	"testing"
)

func TestErrorCodeString(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want string
	}{
		{ErrorCodeUnknown, "unknown"},
		{ErrorCodeInvalidArgument, "invalid_argument"},
		{ErrorCodeValidation, "validation"},
		{ErrorCodeJSON, "json"},
		{ErrorCodeParse, "parse"},
		{ErrorCodeNotFound, "not_found"},
		{ErrorCodeIO, "io"},
		{9999, "unknown"}, // default branch
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Fatalf("ErrorCode(%d).String() = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	e1 := New(ErrorCodeValidation, "bad stuff")
	if CodeOf(e1) != ErrorCodeValidation {
		t.Fatalf("CodeOf(New) = %v", CodeOf(e1))
	}
	e2 := Newf(ErrorCodeJSON, "bad json %d", 12)
	if got := e2.Error(); got != "bad json 12" {
		t.Fatalf("Newf().Error = %q", got)
	}

	src := stderrs.New("root")
	e3 := Wrap(src, ErrorCodeIO, "read failed")
	if u := stderrs.Unwrap(e3); u == nil || u.Error() != "root" {
		t.Fatalf("Wrap did not keep orig")
	}
	e4 := Wrapf(src, ErrorCodeParse, "bad time %q", "32.13.2019")
	if want := `bad time "32.13.2019": root`; e4.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e4.Error(), want)
	}

	if got, ok := As(e4); !ok || got.Code() != ErrorCodeParse {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	// copy-on-write
	e5 := Wrap(src, ErrorCodeParse, "oops")
	e6 := WithField(e5, "timestamp")
	e7 := WithOp(e6, "records.ParseCell")
	if fe, ok := As(e6); !ok || fe.Field() != "timestamp" {
		t.Fatalf("WithField failed")
	}
	if oe, ok := As(e7); !ok || oe.Op() != "records.ParseCell" {
		t.Fatalf("WithOp failed")
	}
	if fe0, _ := As(e5); fe0.Field() != "" || fe0.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}
	if WithField(src, "x") != src || WithOp(src, "x") != src {
		t.Fatalf("mutators should pass foreign errors through")
	}

	outer := fmt.Errorf("page 2: %w", e7)
	if !IsCode(outer, ErrorCodeParse) {
		t.Fatalf("code lost through fmt wrapping")
	}
}

func TestWire(t *testing.T) {
	w := (&Error{code: ErrorCodeParse, msg: "nope", field: "duration"}).ToWire()
	if w.Code != ErrorCodeParse || w.Kind != "parse" || w.Message != "nope" || w.Field != "duration" {
		t.Fatalf("ToWire mismatch: %+v", w)
	}
	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) expected zero, got %+v", wf)
	}
	if wf := WireFrom(stderrs.New("root")); wf.Code != ErrorCodeUnknown || wf.Message != "root" {
		t.Fatalf("WireFrom(foreign) mismatch: %+v", wf)
	}
}

func TestSugar(t *testing.T) {
	cases := map[ErrorCode]error{
		ErrorCodeNotFound:        NotFoundf("no table %q", "DataTable"),
		ErrorCodeInvalidArgument: InvalidArgf("x"),
		ErrorCodeJSON:            JSONErrf("x"),
		ErrorCodeParse:           Parsef("x"),
		ErrorCodeIO:              IOf("x"),
	}
	for code, err := range cases {
		if !IsCode(err, code) {
			t.Fatalf("%v: got code %v", err, CodeOf(err))
		}
	}
	if CodeOf(stderrs.New("x")) != ErrorCodeUnknown {
		t.Fatalf("foreign error should be unknown")
	}
}
