package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"tacc.org/internal/audit"
	"tacc.org/internal/auth"
	"tacc.org/internal/config"
	"tacc.org/internal/httpapi"
	"tacc.org/internal/ledger"
	"tacc.org/internal/ledger/remote"
	"tacc.org/internal/obs"
	"tacc.org/internal/stream"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tacc-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := obs.NewLogger(cfg.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.SetBuildInfo(version, commit)

	events := stream.New(cfg.StreamBuffer)
	svc := ledger.NewInMemory(
		ledger.WithDefaultLabels(cfg.DefaultLabels...),
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithPublisher(events),
	)

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithAudit(audit.New(logger)),
		httpapi.WithStream(events),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
	}
	var grpcOpts []grpc.ServerOption
	if cfg.AuthEnabled() {
		iss, err := auth.NewIssuer(cfg.AuthSecret)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, httpapi.WithIssuer(iss))
		grpcOpts = append(grpcOpts, grpc.UnaryInterceptor(remote.AuthInterceptor(iss)))
	} else {
		logger.Warn("TACC_AUTH_SECRET not set; API is unauthenticated")
	}
	api := httpapi.New(version, svc, apiOpts...)

	// Cancelled on shutdown so open SSE streams return. No WriteTimeout for
	// the same reason.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcSrv := grpc.NewServer(grpcOpts...)
	remote.Register(grpcSrv, svc)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cancelBase()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	logger.Info("stopped")
	return nil
}
