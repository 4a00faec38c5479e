package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
)

func (s *Service) endpointProtocols(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointProtocols")
	defer span.End()

	if !requireJSONAccept(c) {
		return nil, nil
	}

	return s.apiv1.Protocols(ctx, c.Param("workflowId"), c.Param("exchangeId"))
}
