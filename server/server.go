package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go_engine/server/ws"

	"golang.org/x/sync/errgroup"
)

var (
	listen = flag.String("listen", ":8080", "http service address")
	tick   = flag.Duration("tick", time.Second/30, "pose broadcast interval")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := ws.New()
	httpServer := &http.Server{Addr: *listen, Handler: server.Handler()}

	errg, gctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		log.Printf("listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	errg.Go(func() error {
		return server.Run(gctx, *tick)
	})
	errg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := errg.Wait(); err != nil {
		log.Fatal(err)
	}
}
