package httpserver

import (
	"context"
	"net/http"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

func (s *Service) endpointCreateExchange(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointCreateExchange")
	defer span.End()

	request := apiv1.CreateExchangeRequest{}
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}

	return s.apiv1.CreateExchange(ctx, c.Param("workflowId"), request)
}

func (s *Service) endpointGetExchange(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointGetExchange")
	defer span.End()

	return s.apiv1.GetExchange(ctx, c.Param("workflowId"), c.Param("exchangeId"))
}
