// Package middleware provides net/http middleware for the dispatch server.
//
//	var h http.Handler = mux
//	h = middleware.Logging(log)(h)
//	h = middleware.RequestID()(h)
//
// The wrapped writer forwards Flush and Hijack, so streamed responses and
// WebSocket upgrades pass through unchanged.
package middleware
