package db

import (
	"context"
	"testing"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig(id string) *wmodel.WorkflowConfig {
	return &wmodel.WorkflowConfig{
		ID:          id,
		Controller:  "did:web:issuer.example.com",
		InitialStep: "issue",
		Steps: map[string]*wmodel.StepSource{
			"issue": {Static: &wmodel.StepDescriptor{}},
		},
	}
}

func TestWorkflowConfigCreateAndGet(t *testing.T) {
	ctx := context.Background()
	service, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalConfig("https://issuer.example.com/workflows/w1")
	require.NoError(t, service.WorkflowConfigColl.Create(ctx, cfg))

	got, err := service.WorkflowConfigColl.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Controller, got.Controller)
	assert.Equal(t, int64(0), got.Sequence)
}

func TestWorkflowConfigCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	service, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalConfig("https://issuer.example.com/workflows/dup")
	require.NoError(t, service.WorkflowConfigColl.Create(ctx, cfg))

	err := service.WorkflowConfigColl.Create(ctx, minimalConfig(cfg.ID))
	require.Error(t, err)
	assert.Equal(t, werrors.KindDuplicate, werrors.As(err).Name)
}

func TestWorkflowConfigGetUnknown(t *testing.T) {
	ctx := context.Background()
	service, cleanup := setupTestService(ctx, t)
	defer cleanup()

	_, err := service.WorkflowConfigColl.Get(ctx, "https://issuer.example.com/workflows/missing")
	require.Error(t, err)
	assert.Equal(t, werrors.KindNotFound, werrors.As(err).Name)
}

func TestWorkflowConfigUpdateSequence(t *testing.T) {
	ctx := context.Background()
	service, cleanup := setupTestService(ctx, t)
	defer cleanup()

	cfg := minimalConfig("https://issuer.example.com/workflows/update")
	require.NoError(t, service.WorkflowConfigColl.Create(ctx, cfg))

	next := minimalConfig(cfg.ID)
	next.MeterID = "meter-1"
	require.NoError(t, service.WorkflowConfigColl.Update(ctx, next, 0))

	got, err := service.WorkflowConfigColl.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "meter-1", got.MeterID)
	assert.Equal(t, int64(1), got.Sequence)

	stale := minimalConfig(cfg.ID)
	err = service.WorkflowConfigColl.Update(ctx, stale, 0)
	require.Error(t, err)
	assert.Equal(t, werrors.KindInvalidState, werrors.As(err).Name)
}
