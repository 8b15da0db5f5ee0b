package doeff

import (
	"fmt"
	"sync/atomic"
)

// Program is the public name for an effectful computation: the same type
// as Eff, aliased so the runtime facade and the rest of this file read in
// the vocabulary the rest of the system uses (Program, not Eff/Cont).
type Program[A any] = Eff[A]

// FailProgram lifts an error into a Program that aborts immediately: no
// further Bind/FlatMap stage runs, and the error surfaces as
// RunResult.Value's Left side (or is caught by an enclosing Try/Recover).
// Built the same way the teacher builds ThrowError: a direct marker,
// because the operation's own OpResult (Resumed) does not match the
// caller's type parameter A, so Perform's generic inference cannot apply.
func FailProgram[A any](err error) Program[A] {
	return func(k func(A) Resumed) Resumed {
		m := acquireMarker()
		m.op = raiseOp{err: err}
		m.k = k
		m.resume = effectMarkerResume[A]
		return m
	}
}

// Raise is an alias for FailProgram matching the vocabulary used by Try
// and Recover.
func Raise[A any](err error) Program[A] { return FailProgram[A](err) }

// FromEffect performs an effect operation, producing the program that
// suspends at it. This is the Program-level name for Perform.
func FromEffect[O Op[O, A], A any](op O) Program[A] { return Perform(op) }

// FlatMap sequences two programs, threading the first's result into the
// second. Program-level name for Bind.
func FlatMap[A, B any](p Program[A], f func(A) Program[B]) Program[B] { return Bind(p, f) }

// MapProgram applies a pure function to a program's result.
// Program-level name for Map.
func MapProgram[A, B any](p Program[A], f func(A) B) Program[B] { return Map(p, f) }

// ThenProgram sequences two programs, discarding the first result.
// Program-level name for Then.
func ThenProgram[A, B any](p Program[A], n Program[B]) Program[B] { return Then(p, n) }

// raiseOp is the structural marker FailProgram/Raise suspend on; the
// dispatcher recognises it directly rather than routing it through the
// HandlerStack, the same way the kernel recognises Resume/Delegate/Pass.
type raiseOp struct{ err error }

func (raiseOp) OpResult() Resumed { panic("phantom") }

// tryDispatcher lets a generic operation (tryOp[A], parameterised over the
// body's result type) participate in stackProcessor's type-switch-free
// fast path for structural effects, the same pattern State/Reader/Writer
// use for their DispatchXxx methods.
type tryDispatcher interface {
	dispatchTry(cell *dispatchCell, core coreDispatcher) Resumed
}

type tryOp[A any] struct{ body Program[A] }

func (tryOp[A]) OpResult() Either[error, A] { panic("phantom") }

func (o tryOp[A]) dispatchTry(cell *dispatchCell, core coreDispatcher) Resumed {
	child := &dispatchCell{
		stack:      cell.stack,
		intercepts: append([]func(Operation) Operation(nil), cell.intercepts...),
	}
	expr := Reify(o.body)
	return evalFrames(Erased(expr.Value), expr.Frame, stackProcessor[A]{cell: child, core: core})
}

// Try runs p and catches anything FailProgram/Raise (or an unhandled
// effect, or an invalid handler program) produces inside it, returning
// Either instead of aborting the enclosing program. Composes inside a
// running program, unlike RunError which only runs at the top level.
func Try[A any](p Program[A]) Program[Either[error, A]] {
	return Perform(tryOp[A]{body: p})
}

// Recover runs p, and if it fails, runs recovery with the error instead of
// propagating it.
func Recover[A any](p Program[A], recovery func(error) Program[A]) Program[A] {
	return FlatMap(Try(p), func(res Either[error, A]) Program[A] {
		if v, ok := res.GetRight(); ok {
			return Pure(v)
		}
		err, _ := res.GetLeft()
		return recovery(err)
	})
}

var scopeCounter atomic.Uint64

func newScopeID() uint64 { return scopeCounter.Add(1) }

type pushHandlerOp struct {
	fn      HandlerFunc
	scopeID uint64
}

func (pushHandlerOp) OpResult() struct{} { panic("phantom") }

type popHandlerOp struct{ scopeID uint64 }

func (popHandlerOp) OpResult() struct{} { panic("phantom") }

// WithHandler pushes h onto the ambient HandlerStack for the dynamic
// extent of p, popping it again whether p completes or fails — the same
// acquire/use/release discipline as Bracket, built out of Try exactly the
// way Bracket is built out of RunError.
func WithHandler[A any](h HandlerFunc, p Program[A]) Program[A] {
	scopeID := newScopeID()
	push := Perform(pushHandlerOp{fn: h, scopeID: scopeID})
	pop := Perform(popHandlerOp{scopeID: scopeID})
	return FlatMap(push, func(struct{}) Program[A] {
		return FlatMap(Try(p), func(res Either[error, A]) Program[A] {
			return FlatMap(pop, func(struct{}) Program[A] {
				if v, ok := res.GetRight(); ok {
					return Pure(v)
				}
				err, _ := res.GetLeft()
				return Raise[A](err)
			})
		})
	})
}

type pushInterceptOp struct {
	transform func(Operation) Operation
	scopeID   uint64
}

func (pushInterceptOp) OpResult() struct{} { panic("phantom") }

type popInterceptOp struct{ scopeID uint64 }

func (popInterceptOp) OpResult() struct{} { panic("phantom") }

// Intercept rewrites every effect p performs, inside-out, before it
// reaches the handler stack. Scoped the same acquire/release way as
// WithHandler.
func Intercept[A any](p Program[A], transform func(Operation) Operation) Program[A] {
	scopeID := newScopeID()
	push := Perform(pushInterceptOp{transform: transform, scopeID: scopeID})
	pop := Perform(popInterceptOp{scopeID: scopeID})
	return FlatMap(push, func(struct{}) Program[A] {
		return FlatMap(Try(p), func(res Either[error, A]) Program[A] {
			return FlatMap(pop, func(struct{}) Program[A] {
				if v, ok := res.GetRight(); ok {
					return Pure(v)
				}
				err, _ := res.GetLeft()
				return Raise[A](err)
			})
		})
	})
}

type getHandlersOp struct{}

func (getHandlersOp) OpResult() *HandlerStack { panic("phantom") }

// GetHandlers returns a snapshot of the ambient HandlerStack.
func GetHandlers() Program[*HandlerStack] { return Perform(getHandlersOp{}) }

type setHandlersOp struct{ stack *HandlerStack }

func (setHandlersOp) OpResult() *HandlerStack { panic("phantom") }

// SetHandlers replaces the ambient HandlerStack and returns the stack it
// replaced, so callers can restore it later (typically via Recover or a
// WithHandler-style bracket).
func SetHandlers(stack *HandlerStack) Program[*HandlerStack] {
	return Perform(setHandlersOp{stack: stack})
}

// Sequence runs a slice of programs in order, collecting their results.
func Sequence[A any](ps []Program[A]) Program[[]A] {
	if len(ps) == 0 {
		return Pure([]A{})
	}
	head, tail := ps[0], ps[1:]
	return FlatMap(head, func(a A) Program[[]A] {
		return FlatMap(Sequence(tail), func(rest []A) Program[[]A] {
			out := make([]A, 0, len(rest)+1)
			out = append(out, a)
			out = append(out, rest...)
			return Pure(out)
		})
	})
}

// List is an alias for Sequence matching the algebra's builder vocabulary.
func List[A any](ps []Program[A]) Program[[]A] { return Sequence(ps) }

// Traverse maps f over items and sequences the resulting programs.
func Traverse[A, B any](items []A, f func(A) Program[B]) Program[[]B] {
	ps := make([]Program[B], len(items))
	for i, it := range items {
		ps[i] = f(it)
	}
	return Sequence(ps)
}

// Dict runs a map of named programs and collects their results keyed the
// same way.
func Dict[K comparable, V any](entries map[K]Program[V]) Program[map[K]V] {
	keys := make([]K, 0, len(entries))
	ps := make([]Program[V], 0, len(entries))
	for k, p := range entries {
		keys = append(keys, k)
		ps = append(ps, p)
	}
	return MapProgram(Sequence(ps), func(vs []V) map[K]V {
		out := make(map[K]V, len(vs))
		for i, v := range vs {
			out[keys[i]] = v
		}
		return out
	})
}

// Triple holds three values, for Tuple3.
type Triple[A, B, C any] struct {
	Fst A
	Snd B
	Thd C
}

// Quad holds four values, for Tuple4.
type Quad[A, B, C, D any] struct {
	Fst A
	Snd B
	Thd C
	Fth D
}

// Tuple2 runs two programs in order and pairs their results.
func Tuple2[A, B any](pa Program[A], pb Program[B]) Program[Pair[A, B]] {
	return FlatMap(pa, func(a A) Program[Pair[A, B]] {
		return FlatMap(pb, func(b B) Program[Pair[A, B]] {
			return Pure(Pair[A, B]{Fst: a, Snd: b})
		})
	})
}

// Tuple3 runs three programs in order and groups their results.
func Tuple3[A, B, C any](pa Program[A], pb Program[B], pc Program[C]) Program[Triple[A, B, C]] {
	return FlatMap(pa, func(a A) Program[Triple[A, B, C]] {
		return FlatMap(pb, func(b B) Program[Triple[A, B, C]] {
			return FlatMap(pc, func(c C) Program[Triple[A, B, C]] {
				return Pure(Triple[A, B, C]{Fst: a, Snd: b, Thd: c})
			})
		})
	})
}

// Tuple4 runs four programs in order and groups their results.
func Tuple4[A, B, C, D any](pa Program[A], pb Program[B], pc Program[C], pd Program[D]) Program[Quad[A, B, C, D]] {
	return FlatMap(pa, func(a A) Program[Quad[A, B, C, D]] {
		return FlatMap(pb, func(b B) Program[Quad[A, B, C, D]] {
			return FlatMap(pc, func(c C) Program[Quad[A, B, C, D]] {
				return FlatMap(pd, func(d D) Program[Quad[A, B, C, D]] {
					return Pure(Quad[A, B, C, D]{Fst: a, Snd: b, Thd: c, Fth: d})
				})
			})
		})
	})
}

// Option represents an optional value for FirstSome.
type Option[A any] struct {
	value   A
	present bool
}

// Some wraps a present value.
func Some[A any](a A) Option[A] { return Option[A]{value: a, present: true} }

// None represents an absent value.
func None[A any]() Option[A] { return Option[A]{} }

// Get returns the wrapped value and whether it is present.
func (o Option[A]) Get() (A, bool) { return o.value, o.present }

// FirstSuccess runs programs in order and returns the first one that does
// not fail, or the last failure's error if every one of them fails.
func FirstSuccess[A any](ps []Program[A]) Program[A] {
	if len(ps) == 0 {
		return Raise[A](fmt.Errorf("doeff: FirstSuccess over an empty list of programs"))
	}
	head, tail := ps[0], ps[1:]
	return FlatMap(Try(head), func(res Either[error, A]) Program[A] {
		if v, ok := res.GetRight(); ok {
			return Pure(v)
		}
		if len(tail) == 0 {
			err, _ := res.GetLeft()
			return Raise[A](err)
		}
		return FirstSuccess(tail)
	})
}

// FirstSome runs programs in order and returns the first Some result, or
// None if every one of them is None.
func FirstSome[A any](ps []Program[Option[A]]) Program[Option[A]] {
	if len(ps) == 0 {
		return Pure(None[A]())
	}
	head, tail := ps[0], ps[1:]
	return FlatMap(head, func(o Option[A]) Program[Option[A]] {
		if _, ok := o.Get(); ok {
			return Pure(o)
		}
		return FirstSome(tail)
	})
}
