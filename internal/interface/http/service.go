package httpservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sanchit-4/universal-nft/internal/config"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	interfaces "github.com/sanchit-4/universal-nft/internal/interface"
	"github.com/sanchit-4/universal-nft/internal/telemetry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type service struct {
	config       Config
	appConfig    *config.Config
	server       *http.Server
	otelShutdown func(context.Context) error
}

func NewService(svcConfig Config, appConfig *config.Config) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{
		config:    svcConfig,
		appConfig: appConfig,
	}, nil
}

func (s *service) Start() error {
	ctx := context.Background()
	otelShutdown, err := telemetry.InitOtelSDK(ctx, s.appConfig.OtelCollectorEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init otel sdk: %w", err)
	}
	s.otelShutdown = otelShutdown

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return fmt.Errorf("failed to create app service: %w", err)
	}

	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           newHandler(appSvc, s.config.NoAuth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server stopped")
		}
	}()

	log.Infof("started listening at %s", s.config.address())
	return nil
}

// newHandler serves the router over HTTP/1.1 and cleartext HTTP/2.
func newHandler(appSvc application.Service, noAuth bool) http.Handler {
	return h2c.NewHandler(newRouter(appSvc, noAuth), &http2.Server{})
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("failed to gracefully shutdown http server")
		}
	}

	if appSvc, _ := s.appConfig.AppService(); appSvc != nil {
		appSvc.Close()
	}

	if s.otelShutdown != nil {
		if err := s.otelShutdown(context.Background()); err != nil {
			log.Errorf("failed to shutdown otel: %s", err)
		}
	}
	log.Info("shutdown service")
}
