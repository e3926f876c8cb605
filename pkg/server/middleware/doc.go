// Package middleware provides the HTTP middleware chain for the courier API.
//
// The server applies, outermost first:
//
//	Recovery -> Tracing -> RequestID -> Logging -> CORS -> Timeout -> Metrics -> mux
//
// Recovery turns panics into a JSON 500. RequestID accepts a client supplied
// X-Request-ID or generates one, and stores it in the context for the
// logging package. Metrics labels requests by the matched ServeMux pattern
// so path parameters do not explode label cardinality. Timeout bounds the
// request context; handlers that see it expire answer 504.
package middleware
