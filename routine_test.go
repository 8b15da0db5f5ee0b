package doeff_test

import (
	"testing"

	"code.doeff.dev/doeff"
)

type askOp struct{ Key string }

func (askOp) OpResult() string { panic("phantom") }

func TestFromRoutineDrivesYieldsThroughHandlers(t *testing.T) {
	r := doeff.NewRoutine(func(yield func(doeff.Operation) doeff.Resumed) doeff.Resumed {
		name := yield(askOp{Key: "name"}).(string)
		greeting := yield(askOp{Key: "greeting"}).(string)
		return greeting + ", " + name
	})

	p := doeff.WithHandler(func(op doeff.Operation, k *doeff.Continuation) doeff.Program[doeff.Resumed] {
		a, ok := op.(askOp)
		if !ok {
			return doeff.Delegate()
		}
		switch a.Key {
		case "name":
			return doeff.Resume(k, "Ada")
		case "greeting":
			return doeff.Resume(k, "hello")
		default:
			return doeff.Delegate()
		}
	}, doeff.FromRoutine[string](r))

	result := doeff.RunBare(p)
	v, ok := result.Value.GetRight()
	if !ok || v != "hello, Ada" {
		t.Fatalf("got %v, want Right(hello, Ada)", result.Value)
	}
}

func TestFromRoutineWithNoYields(t *testing.T) {
	r := doeff.NewRoutine(func(yield func(doeff.Operation) doeff.Resumed) doeff.Resumed {
		return 42
	})
	result := doeff.RunBare(doeff.FromRoutine[int](r))
	v, ok := result.Value.GetRight()
	if !ok || v != 42 {
		t.Fatalf("got %v, want Right(42)", result.Value)
	}
}

func TestFromRoutinePropagatesUnhandledYield(t *testing.T) {
	r := doeff.NewRoutine(func(yield func(doeff.Operation) doeff.Resumed) doeff.Resumed {
		return yield(askOp{Key: "missing"}).(string)
	})
	result := doeff.RunBare(doeff.FromRoutine[string](r))
	if result.Value.IsRight() {
		t.Fatal("expected Left when nothing handles the routine's yielded operation")
	}
}

func TestFromRoutinePropagatesPanicAsFailure(t *testing.T) {
	r := doeff.NewRoutine(func(yield func(doeff.Operation) doeff.Resumed) doeff.Resumed {
		panic("boom")
	})
	result := doeff.RunBare(doeff.FromRoutine[string](r))
	if result.Value.IsRight() {
		t.Fatal("expected a panicking routine body to surface as a failed run, not a crash")
	}
}
