package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"docqa/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve [document]",
		Short: "Run the HTTP API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			s, err := start(ctx, *cfgPath, args, os.Stderr, reg)
			if err != nil {
				return err
			}
			defer s.Close()

			if addr == "" {
				addr = s.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(s.app.Pipeline, reg, s.logger),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutSecs) * time.Second,
				WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutSecs) * time.Second,
			}
			return server.Serve(ctx, srv, s.logger)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serve
}
