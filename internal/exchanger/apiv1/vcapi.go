package apiv1

import (
	"context"

	"github.com/sunet/vc-exchanger/pkg/workflow/engine"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// VCAPIRequest is the POST {exchangeId} body: an empty body
// requests the VPR, a populated one submits a VP.
type VCAPIRequest struct {
	VerifiablePresentation map[string]any `json:"verifiablePresentation,omitempty"`
}

// VCAPIResponse is the uniform VC-API response shape: exactly one of
// VerifiablePresentationRequest or VerifiablePresentation is populated.
type VCAPIResponse struct {
	VerifiablePresentationRequest map[string]any `json:"verifiablePresentationRequest,omitempty"`
	VerifiablePresentation        map[string]any `json:"verifiablePresentation,omitempty"`
}

// VCAPIPost implements the VC-API adapter's single endpoint.
func (c *Client) VCAPIPost(ctx context.Context, workflowID, exchangeID string, req VCAPIRequest) (*VCAPIResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:vcapi_post")
	defer span.End()

	var response *VCAPIResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, nil, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if step.InviteRequest != nil && step.InviteRequest.Enabled {
			return nil, werrors.New(werrors.KindNotAllowed, "this exchange step only supports the invite-request protocol")
		}

		if req.VerifiablePresentation == nil {
			return c.vcapiChallenge(ctx, cfg, exchange, step, &response)
		}

		return c.vcapiSubmitPresentation(ctx, cfg, exchange, step, req.VerifiablePresentation, true, &response)
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// vcapiChallenge handles the empty-body case: bind a fresh challenge
// and return the step's VPR.
func (c *Client) vcapiChallenge(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor, out **VCAPIResponse) (*engine.Intent, error) {
	vpr := map[string]any{}
	for k, v := range step.VerifiablePresentationRequest {
		vpr[k] = v
	}

	challenge := exchange.ID
	if step.CreateChallenge {
		ch, err := c.verifier.CreateChallenge(ctx, cfg)
		if err != nil {
			return nil, err
		}
		challenge = ch
	}
	vpr["challenge"] = challenge

	*out = &VCAPIResponse{VerifiablePresentationRequest: vpr}

	return &engine.Intent{
		Response: *out,
		Advance:  false,
	}, nil
}

// vcapiSubmitPresentation verifies a submitted VP per the step
// contract, issues any credentials the step calls for, and assembles a
// response VP.
func (c *Client) vcapiSubmitPresentation(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor, vp map[string]any, isProtected bool, out **VCAPIResponse) (*engine.Intent, error) {
	if _, err := c.verifier.VerifyPresentation(ctx, cfg, step, vp, isProtected, nil); err != nil {
		return nil, err
	}

	did := extractHolderDID(vp)

	responseVCs := make([]map[string]any, 0, len(step.VerifiableCredentials)+len(step.IssueRequests))

	for _, vc := range step.VerifiableCredentials {
		responseVCs = append(responseVCs, vc)
	}

	if len(step.IssueRequests) > 0 {
		issued, err := c.issuer.IssueBatch(ctx, cfg, exchange, step.IssueRequests)
		if err != nil {
			return nil, err
		}
		for _, env := range issued {
			if env.VerifiableCredential != nil {
				responseVCs = append(responseVCs, env.VerifiableCredential)
			}
		}
	}

	responseVP := map[string]any{
		"@context":             []string{"https://www.w3.org/ns/credentials/v2"},
		"type":                 []string{"VerifiablePresentation"},
		"verifiableCredential": responseVCs,
	}

	*out = &VCAPIResponse{VerifiablePresentation: responseVP}

	result := map[string]any{
		"verifiablePresentation": vp,
		"did":                    did,
	}

	return &engine.Intent{
		Response:   *out,
		StepResult: result,
		Advance:    true,
	}, nil
}

// extractHolderDID pulls the presenting party's DID out of a submitted
// VP's holder (or its first proof's verificationMethod, DID-prefixed).
func extractHolderDID(vp map[string]any) string {
	if holder, ok := vp["holder"].(string); ok && holder != "" {
		return holder
	}
	if proof, ok := vp["proof"].(map[string]any); ok {
		if vm, ok := proof["verificationMethod"].(string); ok {
			return didFromVM(vm)
		}
	}
	return ""
}

func didFromVM(vm string) string {
	for i := 0; i < len(vm); i++ {
		if vm[i] == '#' {
			return vm[:i]
		}
	}
	return vm
}
