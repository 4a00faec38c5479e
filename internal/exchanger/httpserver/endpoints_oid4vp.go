package httpserver

import (
	"context"
	"net/http"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

func (s *Service) endpointGetAuthorizationRequest(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointGetAuthorizationRequest")
	defer span.End()

	profile := c.Param("profile")
	if profile == "" {
		profile = "default"
	}

	return s.apiv1.GetAuthorizationRequest(ctx, c.Param("workflowId"), c.Param("exchangeId"), profile)
}

func (s *Service) endpointPostAuthorizationResponse(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointPostAuthorizationResponse")
	defer span.End()

	profile := c.Param("profile")
	if profile == "" {
		profile = "default"
	}

	request := apiv1.AuthorizationResponse{}
	if err := c.ShouldBind(&request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}

	return s.apiv1.PostAuthorizationResponse(ctx, c.Param("workflowId"), c.Param("exchangeId"), profile, request)
}
