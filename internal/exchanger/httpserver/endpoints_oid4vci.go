package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

func (s *Service) endpointOID4VCIMetadata(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointOID4VCIMetadata")
	defer span.End()

	return s.apiv1.OID4VCIMetadata(ctx, c.Param("workflowId"), c.Param("exchangeId"))
}

func (s *Service) endpointToken(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointToken")
	defer span.End()

	request := apiv1.TokenRequest{}
	if err := c.ShouldBind(&request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}
	request.DPoPJKT = c.GetHeader("DPoP")

	return s.apiv1.Token(ctx, c.Param("workflowId"), c.Param("exchangeId"), request)
}

func (s *Service) endpointNonce(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointNonce")
	defer span.End()

	return s.apiv1.Nonce(ctx, c.Param("workflowId"), c.Param("exchangeId"))
}

func (s *Service) endpointCredential(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointCredential")
	defer span.End()

	request := apiv1.CredentialRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}
	request.AccessToken = bearerToken(c)

	return s.apiv1.Credential(ctx, c.Param("workflowId"), c.Param("exchangeId"), request)
}

func (s *Service) endpointBatchCredential(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointBatchCredential")
	defer span.End()

	request := apiv1.BatchCredentialRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.AbortWithStatus(http.StatusBadRequest)
		return nil, nil
	}
	token := bearerToken(c)
	for i := range request.CredentialRequests {
		request.CredentialRequests[i].AccessToken = token
	}

	return s.apiv1.BatchCredential(ctx, c.Param("workflowId"), c.Param("exchangeId"), request)
}

func (s *Service) endpointCredentialOfferURI(ctx context.Context, c *gin.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "httpserver:exchanger:endpointCredentialOfferURI")
	defer span.End()

	if !requireJSONAccept(c) {
		return nil, nil
	}

	return s.apiv1.CredentialOfferURI(ctx, c.Param("workflowId"), c.Param("exchangeId"))
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}
