package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"

	"github.com/planets/federation-gateway/pkg/config"
	"github.com/planets/federation-gateway/pkg/discovery"
	"github.com/planets/federation-gateway/pkg/federation"
	gatewayhttp "github.com/planets/federation-gateway/pkg/http"
	"github.com/planets/federation-gateway/pkg/jwtvalidation"
)

const shutdownTimeout = 10 * time.Second

func newLogger(debug bool) (log.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	level := log.InfoLevel
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
		level = log.DebugLevel
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return log.NewZapLogger(zapLogger, level), nil
}

func run(cfg config.Config, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	composer, err := compose(cfg, logger)
	if err != nil {
		return err
	}

	sdls, err := federation.NewSDLFetcher(
		&http.Client{Timeout: 10 * time.Second},
		federation.WithSDLLogger(logger),
		federation.WithSDLRetry(cfg.SDLFetchAttempts, cfg.SDLFetchInterval),
	).FetchAll(ctx, composer.Descriptors())
	if err != nil {
		return err
	}

	engine, err := federation.NewEngine(ctx, logger, composer, sdls, composer.HTTPClient(http.DefaultTransport, logger))
	if err != nil {
		return err
	}

	graphqlHandler := gatewayhttp.NewGraphqlHTTPHandler(engine, logger)
	handlerOptions := gatewayhttp.HandlerOptions{
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.JWTSecretKey != "" {
		validator, err := jwtvalidation.NewValidator(cfg.JWTSecretKey, logger)
		if err != nil {
			return err
		}
		handlerOptions.Middlewares = append(handlerOptions.Middlewares, validator.Middleware)
	}

	server := &http.Server{
		Handler:           gatewayhttp.NewHandler(graphqlHandler, handlerOptions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr(), err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	graphqlHandler.SetReady(true)
	fmt.Fprintf(stdout, "Server ready at http://%s/\n", listener.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	graphqlHandler.SetReady(false)
	logger.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// compose resolves the configured topology into the gateway composer.
func compose(cfg config.Config, logger log.Logger) (*federation.Composer, error) {
	locator := discovery.NewLocator(cfg.DeploymentMode)
	if err := locator.Validate(); err != nil {
		logger.Warn("subgraph urls will not be reachable",
			log.Error(err),
			log.String("variable", config.KeyDeploymentMode),
		)
	}

	entries, err := discovery.TopologyByName(cfg.Topology)
	if err != nil {
		return nil, err
	}

	composer, err := federation.NewComposer(federation.Describe(locator, entries), federation.DefaultClientFactory)
	if err != nil {
		return nil, err
	}

	for _, descriptor := range composer.Descriptors() {
		logger.Info("subgraph",
			log.String("name", descriptor.Name),
			log.String("url", descriptor.URL),
			log.String("mode", locator.Mode().String()),
		)
	}

	return composer, nil
}
