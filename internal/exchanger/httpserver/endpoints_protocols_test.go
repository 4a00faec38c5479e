package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointProtocolsVCAPIOnly(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/protocols-1")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	exchange, err := s.apiv1.CreateExchange(ctx, cfg.ID, apiv1.CreateExchangeRequest{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/"+cfg.ID+"/exchanges/"+exchange.ID+"/protocols", nil)
	c.Request.Header.Set("Accept", "application/json")
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}, {Key: "exchangeId", Value: exchange.ID}}

	result, err := s.endpointProtocols(ctx, c)
	require.NoError(t, err)
	protocols, ok := result.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, protocols, "vcapi")
	assert.NotContains(t, protocols, "inviteRequest")
	assert.NotContains(t, protocols, "OID4VCI")
	assert.NotContains(t, protocols, "OID4VP")
}

func TestEndpointProtocolsRejectsNonJSONAccept(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/protocols-2")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	exchange, err := s.apiv1.CreateExchange(ctx, cfg.ID, apiv1.CreateExchangeRequest{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/"+cfg.ID+"/exchanges/"+exchange.ID+"/protocols", nil)
	c.Request.Header.Set("Accept", "text/plain")
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}, {Key: "exchangeId", Value: exchange.ID}}

	result, err := s.endpointProtocols(ctx, c)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}
