// Package server wraps http.Server with graceful shutdown for the dispatch
// transports.
//
// Hijacked connections (WebSocket clients) are not tracked by
// http.Server.Shutdown, so registries holding them should be closed from a
// shutdown hook:
//
//	srv := server.New(":8080",
//		server.WithLogger(log),
//		server.WithOnShutdown(func() { _ = hub.Close() }),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, mux))
//	if err := g.Wait(); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package server
