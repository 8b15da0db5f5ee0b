// Package doeff provides continuation-passing style primitives and an
// algebraic-effects runtime in Go.
//
// The core type [Cont] represents a computation that accepts a continuation
// and produces a final result. This encoding enables delimited control operators
// such as [Shift] and [Reset] for capturing and manipulating continuations, and
// an ordered [HandlerStack] of user handlers sitting above a small set of
// kernel-recognised effects (spawning, promises, futures, cancellation).
//
// # Design Philosophy
//
// doeff provides:
//   - Minimal but complete interfaces for continuations, control, and effects
//   - F-bounded polymorphism for compile-time dispatch and devirtualization
//   - Defunctionalized evaluation with allocation-free evaluation loops (construction may allocate)
//   - A scheduler (package sched) for tasks, promises and futures that runs
//     each admitted task on its own goroutine
//
// # F-Bounded Architecture
//
// The package uses Go's F-bounded polymorphism (type T[P T[P]]) as a core
// architectural principle. This enables:
//
//   - Compile-time knowledge of concrete types at monomorphization time
//   - Potential devirtualization of dispatch calls by the compiler
//   - Allocation-free trampoline loops for effect handling through typed dispatch
//
// Key F-bounded interfaces:
//
//   - [Op]: type Op[O Op[O, A], A any] — operations know their concrete type
//   - [Handler]: type Handler[H Handler[H, R], R any] — handlers know their concrete type
//
// # Core Operations
//
// Minimal monad operations:
//
//   - [Return]: Lift a pure value into a continuation
//   - [Bind]: Sequence two continuations
//
// Derived operations:
//
//   - [Map]: Apply a function to the result — equivalent to Bind(m, func(a) Return(f(a)))
//   - [Then]: Sequence, discarding first result — equivalent to Bind(m, func(_) n)
//
// Execution:
//
//   - [Suspend]: Create a continuation from a CPS function
//   - [RunIdentity]: Execute a continuation to obtain the result
//   - [RunContWith]: Execute with a custom final handler
//
// # Program Algebra
//
// [Program] is the public alias for [Eff] used by the facade and by the rest
// of this package's builders:
//
//   - [Pure], [FailProgram]: lift a value or an error
//   - [FlatMap], [MapProgram], [ThenProgram]: sequencing combinators
//   - [Try], [Recover]: error recovery composing inside a running program
//   - [List], [Tuple2], [Tuple3], [Tuple4], [Traverse]: structural combinators
//   - [FirstSuccess], [FirstSome]: short-circuiting combinators
//   - [Intercept]: rewrite the effects a program performs before dispatch
//   - [WithHandler]: push a handler onto the ambient [HandlerStack] for a scope
//
// # Delimited Control
//
//   - [Shift]: Capture the current continuation up to [Reset]
//   - [Reset]: Establish a delimiter for [Shift]
//
// # Stepping Boundary
//
// [Step] and [StepExpr] provide one-effect-at-a-time evaluation for external
// runtimes that drive computation asynchronously (e.g., event loops).
// Unlike [Handle]/[HandleExpr], which run a synchronous trampoline to completion,
// the stepping API yields control at each effect suspension.
//
// Nil completion convention: effect runners and stepping treat a nil [Resumed]
// value as “completed with the zero value”. This implies computations whose
// final result type is a pointer or interface cannot use nil as a meaningful
// result value; wrap such results in a sum type (e.g., [Either]) if you need to
// distinguish “completed with nil” from “completed with zero”.
//
//   - [Step]: Drive a [Cont] computation until it completes or suspends
//   - [StepExpr]: Drive an [Expr] computation until it completes or suspends
//   - [Suspension]: Pending operation with one-shot resumption handle
//   - [Suspension.Op]: Returns the effect operation that caused the suspension
//   - [Suspension.Resume]: Advance to the next suspension or completion (panics on reuse)
//   - [Suspension.TryResume]: Non-panicking variant of Resume
//   - [Suspension.Discard]: Drop without invoking
//
// Returns (value, nil) on completion, or (zero, [*Suspension]) when pending.
// Affine semantics: each [Suspension] may be resumed at most once.
//
// # Algebraic Effects
//
// Effects are defined as types implementing the F-bounded [Op] constraint,
// and handlers interpret these effects via the F-bounded [Handler] interface.
// Handler dispatch returns (resumeValue, true) to continue the computation,
// or (finalResult, false) to short-circuit.
//
//   - [Op]: F-bounded effect operation interface
//   - [Operation]: Runtime type for effect operations
//   - [Resumed]: Runtime type for resumption values
//   - [Handler]: F-bounded effect interpreter interface
//   - [Perform]: Trigger an effect operation
//   - [Handle]: Run a computation with an F-bounded effect handler
//   - [HandleFunc]: Create a handler from a dispatch function
//
// # Handler Stack
//
// [HandlerStack] generalises the single-[Handler] model above into an ordered,
// persistent stack that user code pushes with [WithHandler]. [Perform]ed
// effects walk the stack innermost-first; a handler program resumes the
// captured continuation, or declines the effect with [Delegate] or [Pass],
// both of which continue with the next-outer handler. See [DispatchEffect].
//
// # Standard Effects
//
// All standard handler constructors return concrete types to enable
// F-bounded inference. Operations implement dispatch methods (e.g. DispatchState)
// called through structural assertions in handlers.
//
// State effect for mutable state threading:
//
//   - [Get], [Put], [Modify]: Effect operations
//   - [GetState], [PutState], [ModifyState]: Fused convenience constructors (Cont)
//   - [StateHandler]: Creates a State handler (returns *stateHandler and state getter)
//   - [RunState], [EvalState], [ExecState]: Run with State effect (Cont)
//   - [RunStateExpr]: Run with State effect (Expr)
//
// Reader effect for read-only environment:
//
//   - [Ask]: Effect operation
//   - [AskReader], [MapReader]: Fused convenience constructors (Cont)
//   - [ReaderHandler]: Creates a Reader handler (returns *readerHandler)
//   - [RunReader]: Run with Reader effect (Cont)
//   - [RunReaderExpr]: Run with Reader effect (Expr)
//
// Writer effect for accumulating output:
//
//   - [WriterContext]: Shared context for writer dispatch
//   - [Tell], [Listen], [Censor]: Effect operations
//   - [TellWriter]: Fused convenience constructor (Cont)
//   - [ListenWriter], [CensorWriter]: Convenience wrappers (Cont, delegate to Perform)
//   - [WriterHandler]: Creates a Writer handler (returns *writerHandler and output getter)
//   - [RunWriter], [ExecWriter]: Run with Writer effect (Cont)
//   - [RunWriterExpr]: Run with Writer effect (Expr)
//   - [Pair]: Tuple type for Listen results
//
// Error effect for exception-like control flow:
//
//   - [Throw], [Catch]: Effect operations
//   - [ErrorContext]: Shared context for error dispatch
//   - [ThrowError], [CatchError]: Convenience constructors (Cont)
//   - [ExprThrowError]: Throw constructor (Expr — direct EffectFrame, not composable from ExprPerform)
//   - [RunError]: Run with Error effect (Cont), returns [Either]
//   - [RunErrorExpr]: Run with Error effect (Expr), returns [Either]
//
// # Composed Effects
//
// Multi-effect handlers dispatch multiple effect families from a single handler.
//
//   - [RunStateReader], [RunStateReaderExpr]
//   - [RunStateError], [EvalStateError], [ExecStateError], [RunStateErrorExpr]
//   - [RunStateWriter], [RunStateWriterExpr]
//   - [RunReaderStateError], [RunReaderStateErrorExpr]
//
// # Scheduler and Facade
//
// Package-level [Spawn], [AwaitFuture], [Gather], [Race], [Cancel], [Sleep],
// [CreatePromise], [CompletePromise], and [FailPromise] are core effects the
// scheduler (package sched) recognises ahead of the ambient [HandlerStack],
// the same way [WithHandler]'s frames never see them unless they choose to
// via [Intercept]. [Future] is the read-many handle [Spawn] and
// [CreatePromise] both hand back; [Promise] is [CreatePromise]'s paired
// write-once capability, resolved exactly once via [CompletePromise] or
// [FailPromise] — a second resolution raises [ErrPromiseAlreadyCompleted].
//
//   - [Run], [RunAsync], [RunBare]: entry points, each spinning up its own
//     scheduler Runtime
//   - [Env], [GetStateValue], [PutStateValue]: default reader/state
//     conveniences, built on [Ask] and [Get]/[Modify] at map[string]any
//
// # Either Type
//
// [Either] represents success (Right) or failure (Left):
//
//   - [Left], [Right]: Constructors
//   - [Either.IsLeft], [Either.IsRight]: Predicates
//   - [Either.GetLeft], [Either.GetRight]: Accessors
//   - [MatchEither]: Pattern matching
//   - [MapEither]: Functor map over Right
//   - [FlatMapEither]: Monadic bind
//   - [MapLeftEither]: Transform Left value
//
// # Resource Safety
//
// Exception-safe resource management:
//
//   - [Bracket]: Acquire-release-use with guaranteed cleanup
//   - [OnError]: Run cleanup only on error
//
// # Affine Continuations
//
// [Affine] wraps a continuation with one-shot enforcement:
//
//   - [Once]: Create an affine continuation
//   - [Affine.Resume]: Invoke (panics on reuse)
//   - [Affine.TryResume]: Non-panicking variant
//   - [Affine.Discard]: Drop without invoking
//
// # Bridge: Reify / Reflect
//
// The two representations can be converted at runtime following
// Filinski (1994): reify converts semantic values to syntactic
// representations, and reflect is the inverse.
//
//   - [Reify]: Cont[Resumed, A] → Expr[A] (closures become frames)
//   - [Reflect]: Expr[A] → Cont[Resumed, A] (frames become closures)
//
// Conversion is lazy for effectful computations: each effect step is
// translated on demand during evaluation. Round-trip preserves semantics.
//
// # Host-Coroutine Bridge
//
// [NewRoutine] wraps a generator-style body (one that calls a yield function
// for every effect it performs) as a [Routine]; [FromRoutine] lifts a
// [Routine] into a [Program]. Each step of the routine is performed through
// the ordinary [Perform]/[FlatMap] combinators — never through native Go
// recursion — which is how external, non-doeff control flow (the host's own
// coroutines) joins the evaluator one yield at a time. The only concrete
// type satisfying [Routine] is the one [NewRoutine] constructs; there is no
// duck-typed fallback.
//
// # Errors
//
// [RuntimeError] is the closed set of error kinds a running [Program] can
// produce: [ErrUnhandledEffect], [ErrContinuationReused],
// [ErrPromiseAlreadyCompleted], [ErrCancelled],
// [ErrHandlerReturnedInvalidProgram], [ErrMissingEnvKey], [ErrDomain].
// [Run] and [RunAsync] never let one of these escape as a panic; they surface
// in [RunResult.Value].
//
// # Defunctionalized Evaluation
//
// Defunctionalization (Reynolds 1972) enables allocation-free evaluation loops
// for continuation frames. Instead of closures, continuations are represented as tagged
// frame structures. The [Expr] type carries explicit frame data, unlike the
// closure-based [Cont] which tracks the answer type R at compile time.
//
// Type-erased values:
//
//   - [Erased]: Type alias for any, marking type-erased intermediate values
//     in the frame chain. Concrete types are recovered via type assertions
//     at frame boundaries. Frame type parameters use [Erased] (e.g.
//     BindFrame[Erased, Erased]) to document the type-erasure boundary.
//
// [Frame] is the marker interface for all frame types:
//
//   - [ReturnFrame]: Computation complete
//   - [BindFrame]: Monadic sequencing
//   - [MapFrame]: Functor transformation
//   - [ThenFrame]: Sequencing with discard
//   - [EffectFrame]: Suspended effect operation (carries [Operation] for dispatch)
//
// Constructors and combinators:
//
//   - [ExprReturn]: Create completed computation
//   - [ExprBind]: Sequence computations
//   - [ExprMap]: Transform result
//   - [ExprThen]: Sequence with discard
//   - [ExprPerform]: Perform an effect operation (creates [EffectFrame])
//   - [ExprSuspend]: Create suspended computation
//   - [ChainFrames]: Compose frame chains
//   - [RunPure]: Iteratively evaluate pure computation (panics on effects)
//   - [HandleExpr]: Evaluate with F-bounded effect handler
//
// # Example
//
//	type Ask[A any] struct{}
//	func (Ask[A]) OpResult() A { panic("phantom") }
//
//	comp := doeff.Bind(
//		doeff.Perform(Ask[int]{}),
//		func(x int) doeff.Cont[doeff.Resumed, int] {
//			return doeff.Return[doeff.Resumed](x * 2)
//		},
//	)
//
//	result := doeff.Handle(comp, doeff.HandleFunc[int](func(op doeff.Operation) (doeff.Resumed, bool) {
//		switch op.(type) {
//		case Ask[int]:
//			return 21, true // resume with 21
//		default:
//			panic("unhandled effect")
//		}
//	}))
//	// result == 42
package doeff
