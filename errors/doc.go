// Package errors provides the error taxonomy shared by seqkit operators.
//
// Every error raised by the library itself is an *AppError carrying a
// machine-readable ErrorCode. Errors coming from user sources and selectors
// are passed through untouched.
//
// Sentinels (ErrNoElements, ErrMoreThanOne, ErrOverflow, ErrMissingArgument)
// match any AppError with the same code through errors.Is:
//
//	_, err := seq.Single(ctx, s)
//	if errors.Is(err, seqerrors.ErrMoreThanOne) {
//	    // ...
//	}
package errors
