package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/config"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/drain"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/metrics"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/server"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	fs := flag.NewFlagSet("llmrouter", flag.ExitOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "llmrouter version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		fs.PrintDefaults()
	}
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("load config")
	}
	if *showVersion {
		fmt.Printf("llmrouter version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}
	logx.Configure(cfg.LogLevel)
	if err := cfg.LoadEnvFile(); err != nil {
		logx.Log.Fatal().Err(err).Msg("load env file")
	}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rs, err := serverstate.NewRedisStore(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("connect redis")
		}
		defer rs.Close()
		serverstate.UseStore(rs)
		logx.Log.Info().Str("addr", cfg.RedisAddr).Msg("using redis state store")
	}

	counter := &inflight.Counter{}
	preg := server.NewMetricsRegistry()
	metrics.SetServerBuildInfo(version, buildSHA, buildDate)
	registry := server.NewProviderRegistry(*cfg, nil, nil)
	handler := server.New(server.Options{
		Config:   *cfg,
		Registry: registry,
		Inflight: counter,
		Metrics:  preg,
		Version:  version,
	})
	// No write timeout: a generation streams for as long as the provider does.
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	var metricsSrv *http.Server
	if !cfg.MetricsOnMainPort() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", server.MetricsHandler(preg))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	ctrl := drain.New(cfg.DrainTimeout, counter)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go ctrl.Watch(sigCh)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctrl.Done()
		shutdown(srv, "server")
	}()
	if metricsSrv != nil {
		go func() {
			<-ctrl.Done()
			shutdown(metricsSrv, "metrics server")
		}()
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	for _, st := range registry.Statuses(models.Default().Providers()) {
		if !st.Configured {
			logx.Log.Warn().Str("provider", string(st.Provider)).Msg("credential not set; requests for this provider will be rejected")
		}
	}
	serverstate.SetState(serverstate.StatusReady)
	logx.Log.Info().Int("port", cfg.Port).Str("version", version).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
	<-stopped
	logx.Log.Info().Msg("server stopped")
}

// shutdown stops srv, closing connections that are still streaming after a
// short grace period.
func shutdown(srv *http.Server, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logx.Log.Warn().Err(err).Str("server", name).Msg("shutdown incomplete; closing connections")
		_ = srv.Close()
	}
}
