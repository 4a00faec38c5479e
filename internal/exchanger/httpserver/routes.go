package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerWorkflowRoutes wires the workflow-config CRUD surface:
// create/get/update a WorkflowConfig, revoke a delegated zcap.
func (s *Service) registerWorkflowRoutes(ctx context.Context, rgRoot *gin.RouterGroup) {
	rgWorkflows := rgRoot.Group("workflows")

	s.httpHelpers.Server.RegEndpoint(ctx, rgWorkflows, http.MethodPost, "", http.StatusCreated, s.endpointCreateWorkflow)
	s.httpHelpers.Server.RegEndpoint(ctx, rgWorkflows, http.MethodGet, ":workflowId", http.StatusOK, s.endpointGetWorkflow)
	s.httpHelpers.Server.RegEndpoint(ctx, rgWorkflows, http.MethodPut, ":workflowId", http.StatusOK, s.endpointUpdateWorkflow)
	s.httpHelpers.Server.RegEndpoint(ctx, rgWorkflows, http.MethodPost, ":workflowId/zcaps/revocations/:zcapId", http.StatusNoContent, s.endpointRevokeZcap)
}

// registerExchangeRoutes wires exchange creation/retrieval plus the four
// protocol adapters, all addressed under a workflow's exchange id.
func (s *Service) registerExchangeRoutes(ctx context.Context, rgRoot *gin.RouterGroup) {
	rgWorkflows := rgRoot.Group("workflows")
	rgExchanges := rgWorkflows.Group(":workflowId/exchanges")

	s.httpHelpers.Server.RegEndpoint(ctx, rgExchanges, http.MethodPost, "", http.StatusCreated, s.endpointCreateExchange)
	s.httpHelpers.Server.RegEndpoint(ctx, rgExchanges, http.MethodGet, ":exchangeId", http.StatusOK, s.endpointGetExchange)
	s.httpHelpers.Server.RegEndpoint(ctx, rgExchanges, http.MethodGet, ":exchangeId/protocols", http.StatusOK, s.endpointProtocols)

	// VC-API: the exchange id itself is the single endpoint.
	s.httpHelpers.Server.RegEndpoint(ctx, rgExchanges, http.MethodPost, ":exchangeId", http.StatusOK, s.endpointVCAPIPost)

	// OID4VCI.
	rgOpenID := rgExchanges.Group(":exchangeId/openid")
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodGet, "credential-issuer", http.StatusOK, s.endpointOID4VCIMetadata)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "token", http.StatusOK, s.endpointToken)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "nonce", http.StatusOK, s.endpointNonce)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "credential", http.StatusOK, s.endpointCredential)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "batch_credential", http.StatusOK, s.endpointBatchCredential)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodGet, "credential-offer", http.StatusOK, s.endpointCredentialOfferURI)

	// OID4VP, default and named client profiles.
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodGet, "authorization/request", http.StatusOK, s.endpointGetAuthorizationRequest)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "authorization/response", http.StatusOK, s.endpointPostAuthorizationResponse)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodGet, "clients/:profile/authorization/request", http.StatusOK, s.endpointGetAuthorizationRequest)
	s.httpHelpers.Server.RegEndpoint(ctx, rgOpenID, http.MethodPost, "clients/:profile/authorization/response", http.StatusOK, s.endpointPostAuthorizationResponse)

	// Invite-request.
	s.httpHelpers.Server.RegEndpoint(ctx, rgExchanges, http.MethodPost, ":exchangeId/invite-request/response", http.StatusOK, s.endpointInviteResponse)
}
