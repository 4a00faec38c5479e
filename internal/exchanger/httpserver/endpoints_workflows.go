package httpserver

import (
	"context"
	"net/http"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

func (s *Service) endpointCreateWorkflow(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointCreateWorkflow")
	defer span.End()

	request := &wmodel.WorkflowConfig{}
	if err := c.ShouldBindJSON(request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}

	return s.apiv1.CreateWorkflow(ctx, request)
}

func (s *Service) endpointGetWorkflow(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointGetWorkflow")
	defer span.End()

	return s.apiv1.GetWorkflow(ctx, c.Param("workflowId"), c.ClientIP())
}

func (s *Service) endpointUpdateWorkflow(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointUpdateWorkflow")
	defer span.End()

	request := &wmodel.WorkflowConfig{}
	if err := c.ShouldBindJSON(request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}

	return s.apiv1.UpdateWorkflow(ctx, c.Param("workflowId"), request)
}

func (s *Service) endpointRevokeZcap(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointRevokeZcap")
	defer span.End()

	if err := s.apiv1.RevokeZcap(ctx, c.Param("workflowId"), c.Param("zcapId")); err != nil {
		return nil, err
	}
	return nil, nil
}
