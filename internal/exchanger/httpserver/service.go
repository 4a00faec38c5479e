// Package httpserver exposes the exchanger's workflow/exchange CRUD
// surface and its four protocol adapters over gin, the way
// internal/persistent/httpserver and internal/registry/httpserver wire
// pkg/httphelpers.Client's Server/Binding/Rendering handlers instead of
// hand-rolling routing middleware.
package httpserver

import (
	"context"
	"net/http"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"
	"github.com/sunet/vc-exchanger/pkg/httphelpers"
	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/model"
	"github.com/sunet/vc-exchanger/pkg/trace"

	"github.com/gin-gonic/gin"
)

// Service is the exchanger's HTTP surface.
type Service struct {
	tracer      *trace.Tracer
	cfg         *model.Cfg
	log         *logger.Log
	server      *http.Server
	apiv1       *apiv1.Client
	gin         *gin.Engine
	httpHelpers *httphelpers.Client
}

// New wires and starts the exchanger's HTTP server.
func New(ctx context.Context, cfg *model.Cfg, api *apiv1.Client, tracer *trace.Tracer, log *logger.Log) (*Service, error) {
	s := &Service{
		tracer: tracer,
		cfg:    cfg,
		log:    log.New("httpserver"),
		apiv1:  api,
		gin:    gin.New(),
		server: &http.Server{},
	}

	var err error
	s.httpHelpers, err = httphelpers.New(ctx, s.tracer, s.cfg, s.log)
	if err != nil {
		return nil, err
	}

	rgRoot, err := s.httpHelpers.Server.Default(ctx, s.server, s.gin, s.cfg.Exchanger.APIServer.Addr)
	if err != nil {
		return nil, err
	}

	s.httpHelpers.Server.RegEndpoint(ctx, rgRoot, http.MethodGet, "health", http.StatusOK, s.endpointHealth)

	s.registerWorkflowRoutes(ctx, rgRoot)
	s.registerExchangeRoutes(ctx, rgRoot)

	go func() {
		err := s.httpHelpers.Server.ListenAndServe(ctx, s.server, s.cfg.Exchanger.APIServer)
		if err != nil {
			s.log.Trace("listen_error", "error", err)
		}
	}()

	s.log.Info("Started")

	return s, nil
}

func (s *Service) endpointHealth(ctx context.Context, c *gin.Context) (any, error) {
	_, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointHealth")
	defer span.End()
	return gin.H{"status": "ok"}, nil
}

// Close stops the HTTP server and releases the business-logic layer's
// background resources.
func (s *Service) Close(ctx context.Context) error {
	s.apiv1.Close()
	s.log.Info("Stopped")
	return nil
}
