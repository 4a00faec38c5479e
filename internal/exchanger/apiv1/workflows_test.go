package apiv1

import (
	"context"
	"testing"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalWorkflowConfig(id string) *wmodel.WorkflowConfig {
	return &wmodel.WorkflowConfig{
		ID:          id,
		Controller:  "did:web:issuer.example.com",
		InitialStep: "issue",
		Steps: map[string]*wmodel.StepSource{
			"issue": {Static: &wmodel.StepDescriptor{}},
		},
	}
}

func TestCreateAndGetWorkflow(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestClient(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/w1")

	created, err := client.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.Sequence)

	got, err := client.GetWorkflow(ctx, cfg.ID, "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Controller, got.Controller)
}

func TestCreateWorkflowDuplicate(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestClient(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/dup")
	_, err := client.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	_, err = client.CreateWorkflow(ctx, minimalWorkflowConfig(cfg.ID))
	require.Error(t, err)
	assert.Equal(t, werrors.KindDuplicate, werrors.As(err).Name)
}

func TestGetWorkflowIPAllowList(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestClient(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/restricted")
	cfg.IPAllowList = []string{"10.0.0.0/8"}
	_, err := client.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	_, err = client.GetWorkflow(ctx, cfg.ID, "10.1.2.3")
	require.NoError(t, err)

	_, err = client.GetWorkflow(ctx, cfg.ID, "8.8.8.8")
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotAllowed, werrors.As(err).Name)

	// No remote IP supplied bypasses the check (internal/trusted caller).
	_, err = client.GetWorkflow(ctx, cfg.ID, "")
	require.NoError(t, err)
}

func TestUpdateWorkflowSequence(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestClient(ctx, t)
	defer cleanup()

	cfg := minimalWorkflowConfig("https://issuer.example.com/workflows/update")
	_, err := client.CreateWorkflow(ctx, cfg)
	require.NoError(t, err)

	next := minimalWorkflowConfig(cfg.ID)
	next.Sequence = 1
	next.MeterID = "meter-1"

	updated, err := client.UpdateWorkflow(ctx, cfg.ID, next)
	require.NoError(t, err)
	assert.Equal(t, "meter-1", updated.MeterID)

	stale := minimalWorkflowConfig(cfg.ID)
	stale.Sequence = 1
	_, err = client.UpdateWorkflow(ctx, cfg.ID, stale)
	require.Error(t, err)
}

func TestRevokeZcap(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestClient(ctx, t)
	defer cleanup()

	cfgWithZcap := minimalWorkflowConfig("https://issuer.example.com/workflows/revoke-2")
	_, err := client.CreateWorkflow(ctx, cfgWithZcap)
	require.NoError(t, err)

	err = client.RevokeZcap(ctx, cfgWithZcap.ID, "nonexistent")
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotFound, werrors.As(err).Name)
}
