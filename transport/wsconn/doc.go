// Package wsconn adapts gorilla/websocket connections to delivery.SocketConn.
//
// A Hub tracks registered connections and broadcasts events to a snapshot
// of them through a delivery.Emitter. Handler upgrades HTTP requests,
// registers the client in the hub, decodes inbound events and emits the
// events returned by the effect back to the same client:
//
//	hub := wsconn.NewHub(delivery.NewEmitter(delivery.WithLogger(log)))
//	defer hub.Close()
//
//	mux.Handle("/ws", wsconn.Handler(hub, func(ctx context.Context, c *wsconn.Conn, in delivery.Event) ([]delivery.Event, error) {
//		if in.Type == "shout" {
//			hub.Broadcast(ctx, delivery.Event{Type: "shouted", Payload: in.Payload})
//			return nil, nil
//		}
//		return []delivery.Event{{Type: "ack", Payload: in.Type}}, nil
//	}, wsconn.WithAllowAnyOrigin()))
package wsconn
