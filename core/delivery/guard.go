package delivery

// IsDeliverable reports whether conn can accept a write right now.
// Response connections are deliverable until finished; socket connections
// only while OPEN. Anything else, including nil, is not deliverable.
func IsDeliverable(conn any) bool {
	switch c := conn.(type) {
	case ResponseConn:
		return c != nil && !c.Finished()
	case SocketConn:
		return c != nil && c.ReadyState() == StateOpen
	default:
		return false
	}
}

// stateOf returns the ready state name used in diagnostics.
func stateOf(conn SocketConn) string {
	if conn == nil {
		return StateClosed.String()
	}
	return conn.ReadyState().String()
}

// idOf returns the connection id, tolerating nil and panicking connections.
func idOf(conn interface{ ID() string }) (id string) {
	if conn == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	return conn.ID()
}
