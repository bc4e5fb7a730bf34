// Package ndjson moves Sequences over HTTP as newline-delimited JSON.
//
// Source reads a remote NDJSON stream as a Sequence. The request is sent on
// the first Next of each enumeration, retried with resilience.Retry and
// guarded by an optional circuit breaker; the response body is closed when
// the iterator is disposed.
//
// Handler serves a Sequence as an NDJSON response from a gin route. Elements
// are written and flushed as they are pulled, and the iterator is disposed
// as soon as the client goes away.
package ndjson
