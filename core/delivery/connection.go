package delivery

// ReadyState is the lifecycle state of a socket-style connection.
// Values match the WebSocket readyState numbering.
type ReadyState int32

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the upper-case state name.
func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ResponseConn is a request/response-style connection, e.g. an HTTP response.
// Once End has been called, or the transport finished the response on its
// own, Finished must report true.
type ResponseConn interface {
	ID() string
	// WriteHeader writes the status line and headers. Header keys are lower-case.
	WriteHeader(status int, header map[string]string) error
	// Write appends body bytes; used as the sink when piping streamed bodies.
	Write(p []byte) (int, error)
	// End writes the final payload (nil for none) and finishes the response.
	End(body []byte) error
	Finished() bool
}

// SocketConn is a persistent socket-style connection.
type SocketConn interface {
	ID() string
	ReadyState() ReadyState
	// WriteMessage sends one encoded event frame.
	WriteMessage(data []byte) error
}
