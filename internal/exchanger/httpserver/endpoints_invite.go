package httpserver

import (
	"context"
	"net/http"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

func (s *Service) endpointInviteResponse(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointInviteResponse")
	defer span.End()

	request := apiv1.InviteRequestRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}

	return s.apiv1.InviteResponse(ctx, c.Param("workflowId"), c.Param("exchangeId"), request)
}
