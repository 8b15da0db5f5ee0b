package doeff

// RunIdentity executes a continuation with the identity continuation.
// The result type must match the value type (R = A). Named apart from the
// public Run/RunAsync/RunBare facade in facade.go, which runs Programs
// against the effect runtime rather than plain Cont values.
func RunIdentity[A any](m Cont[A, A]) A {
	return m(func(a A) A { return a })
}

// RunContWith executes a continuation with a custom final handler.
func RunContWith[R, A any](m Cont[R, A], k func(A) R) R {
	return m(k)
}
