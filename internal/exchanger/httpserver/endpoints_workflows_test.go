package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointCreateWorkflow(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/http-1")
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	result, err := s.endpointCreateWorkflow(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestEndpointCreateWorkflowBadBody(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader([]byte("not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	result, err := s.endpointCreateWorkflow(ctx, c)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndpointGetWorkflow(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/http-2")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/"+cfg.ID, nil)
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}}

	result, err := s.endpointGetWorkflow(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestEndpointGetWorkflowUnknown(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)
	c.Params = gin.Params{{Key: "workflowId", Value: "https://issuer.example.com/workflows/missing"}}

	_, err := s.endpointGetWorkflow(ctx, c)
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotFound, werrors.As(err).Name)
}

func TestEndpointRevokeZcapUnknown(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/http-3")
	_, err := s.apiv1.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/workflows/"+cfg.ID+"/zcaps/nonexistent", nil)
	c.Params = gin.Params{{Key: "workflowId", Value: cfg.ID}, {Key: "zcapId", Value: "nonexistent"}}

	_, err = s.endpointRevokeZcap(ctx, c)
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotFound, werrors.As(err).Name)
}
