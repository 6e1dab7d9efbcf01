// Package middleware decorates llm.Client values with rate limiting, retry
// and request logging.
package middleware

import "listingassist/internal/llm"

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(llm.Client) llm.Client

// Wrap applies middlewares in left-to-right order:
// Wrap(inner, A, B) => A(B(inner)).
func Wrap(inner llm.Client, mws ...Middleware) llm.Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}
