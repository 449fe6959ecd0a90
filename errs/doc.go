// Package errs defines the typed error hierarchy surfaced by every
// bridged operation and the data-driven registry that translates raw
// native error codes into it.
//
// Callers match errors by code, never by message:
//
//	_, err := fut.Await(ctx)
//	if errs.Is(err, errs.CodeBucketNotFound) {
//	    // create it
//	}
//
// Unmapped native codes still translate into a *Error carrying the raw
// code, so calling code can always pattern-match on the hierarchy.
package errs
