package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sunet/vc-exchanger/internal/exchanger/apiv1"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointCreateExchangeEmptyBody(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/exch-http-1")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/workflows/"+cfg.ID+"/exchanges", bytes.NewReader(nil))
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}}

	result, err := s.endpointCreateExchange(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestEndpointGetExchange(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/exch-http-2")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	created, err := s.apiv1.CreateExchange(ctx, cfg.ID, apiv1.CreateExchangeRequest{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/"+cfg.ID+"/exchanges/"+created.ID, nil)
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}, {Key: "exchangeId", Value: created.ID}}

	result, err := s.endpointGetExchange(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestEndpointGetExchangeUnknown(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/exch-http-3")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/"+cfg.ID+"/exchanges/missing", nil)
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}, {Key: "exchangeId", Value: "missing"}}

	_, err = s.endpointGetExchange(ctx, c)
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotFound, werrors.As(err).Name)
}
