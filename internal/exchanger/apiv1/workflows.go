package apiv1

import (
	"context"
	"net"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// CreateWorkflow validates and persists a new WorkflowConfig. The
// caller (internal/exchanger/httpserver) binds the POST /workflows
// body directly into a *wmodel.WorkflowConfig.
func (c *Client) CreateWorkflow(ctx context.Context, cfg *wmodel.WorkflowConfig) (*wmodel.WorkflowConfig, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:create_workflow")
	defer span.End()

	if err := c.registry.ValidateForCreate(ctx, cfg); err != nil {
		return nil, err
	}

	if err := c.store.WorkflowConfigColl.Create(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetWorkflow loads a WorkflowConfig, enforcing the IP allow-list (spec
// §6: "403 NotAllowedError if ... IP not in allow-list").
func (c *Client) GetWorkflow(ctx context.Context, id, remoteIP string) (*wmodel.WorkflowConfig, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:get_workflow")
	defer span.End()

	cfg, err := c.store.WorkflowConfigColl.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if remoteIP != "" {
		if ip := net.ParseIP(remoteIP); ip != nil && !cfg.IPAllowed(ip) {
			return nil, werrors.NotAllowed("caller IP is not in the workflow's allow-list")
		}
	}

	return cfg, nil
}

// UpdateWorkflow replaces a WorkflowConfig, requiring the submitted
// sequence to be exactly currentSequence+1 ("requires matching
// sequence; 409 on mismatch").
func (c *Client) UpdateWorkflow(ctx context.Context, id string, next *wmodel.WorkflowConfig) (*wmodel.WorkflowConfig, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:update_workflow")
	defer span.End()

	current, err := c.store.WorkflowConfigColl.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.registry.ValidateForUpdate(ctx, next, current.Sequence); err != nil {
		return nil, err
	}

	next.ID = id
	if err := c.store.WorkflowConfigColl.Update(ctx, next, current.Sequence); err != nil {
		return nil, err
	}

	return next, nil
}

// RevokeZcap removes a delegated capability by reference id, handling
// POST /workflows/{id}/zcaps/revocations/{zcapId}.
func (c *Client) RevokeZcap(ctx context.Context, workflowID, zcapRefID string) error {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:revoke_zcap")
	defer span.End()

	cfg, err := c.store.WorkflowConfigColl.Get(ctx, workflowID)
	if err != nil {
		return err
	}

	if _, ok := cfg.Zcaps[zcapRefID]; !ok {
		return werrors.NotFound("no such zcap reference id: " + zcapRefID)
	}
	delete(cfg.Zcaps, zcapRefID)

	return c.store.WorkflowConfigColl.Update(ctx, cfg, cfg.Sequence)
}
