// Package testutil provides shared test helpers for the sqlexpr project.
package testutil

import (
	"errors"
	"testing"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
)

// AssertEqual checks that got == want and reports a descriptive error if not.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertSQL renders e against a fresh binder and compares the SQL with the
// expected string. The binder is returned for further checks.
func AssertSQL(t *testing.T, e expression.Expression, expected string) *binder.ValueBinder {
	t.Helper()
	b := binder.New()
	got, err := expression.Compile(e, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
	return b
}

// AssertBindings checks the values bound on b, in binding order.
func AssertBindings(t *testing.T, b *binder.ValueBinder, want ...any) {
	t.Helper()
	got := b.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %d bindings %v, got %d: %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d: expected %v (%T), got %v (%T)", i, want[i], want[i], got[i], got[i])
		}
	}
}

// AssertPanicIs runs fn and checks it panics with an *expression.Error of the
// given kind.
func AssertPanicIs(t *testing.T, kind error, fn func()) {
	t.Helper()
	var err error
	func() {
		defer expression.Recover(&err)
		fn()
	}()
	if err == nil {
		t.Fatalf("expected a %v panic but got none", kind)
	}
	if !errors.Is(err, kind) {
		t.Errorf("expected a %v panic, got %v", kind, err)
	}
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
}
