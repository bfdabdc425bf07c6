package httpconn

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

// Effect computes a response for a request.
type Effect func(r *http.Request) delivery.Response

// Handler runs effect for every request and delivers the result through
// responder. For streamed bodies it waits until the pipe ends the response
// or the client goes away.
func Handler(responder *delivery.Responder, effect Effect) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn := New(w)
		<-responder.Handle(conn, r)(effect(r))

		if conn.Finished() {
			return
		}

		if !conn.HeaderWritten() {
			// Delivery failed before anything reached the client.
			conn.Abort()
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		select {
		case <-conn.Done():
		case <-r.Context().Done():
			conn.Abort()
		}
	})
}
