package apiv1

import (
	"context"

	"github.com/sunet/vc-exchanger/pkg/workflow/engine"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// InviteRequestRequest is the {exchangeId}/invite-request/response body.
type InviteRequestRequest struct {
	URL         string `json:"url" validate:"required"`
	Purpose     string `json:"purpose,omitempty"`
	ReferenceID string `json:"referenceId" validate:"required"`
}

// InviteRequestResponse is the minimal invite-request protocol's reply.
type InviteRequestResponse struct {
	ReferenceID string `json:"referenceId"`
}

// InviteResponse implements the invite-request adapter's single
// endpoint: it records the submitted reference under
// variables.results.<step>.inviteRequest.inviteResponse and completes
// the exchange.
func (c *Client) InviteResponse(ctx context.Context, workflowID, exchangeID string, req InviteRequestRequest) (*InviteRequestResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:invite_response")
	defer span.End()

	var response *InviteRequestResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, nil, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if step.InviteRequest == nil || !step.InviteRequest.Enabled {
			return nil, werrors.New(werrors.KindNotAllowed, "this exchange step does not support the invite-request protocol")
		}

		response = &InviteRequestResponse{ReferenceID: req.ReferenceID}

		result := map[string]any{
			"inviteRequest": map[string]any{
				"inviteResponse": map[string]any{
					"url":         req.URL,
					"purpose":     req.Purpose,
					"referenceId": req.ReferenceID,
				},
			},
		}

		return &engine.Intent{
			Response:   response,
			StepResult: result,
			Advance:    true,
			Complete:   true,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}
