package apiv1

import (
	"context"
)

// Protocols resolves the exchange's current step and returns the map
// of protocol name -> resolvable endpoint URL for whichever protocols
// that step actually supports: "vcapi" (or "inviteRequest" instead, if
// the step is invite-request-only), "OID4VCI" when the exchange
// carries issuer-side OpenID context, and "OID4VP" when the step
// defines an authorization-request descriptor.
func (c *Client) Protocols(ctx context.Context, workflowID, exchangeID string) (map[string]string, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:protocols")
	defer span.End()

	_, exchange, step, err := c.engine.ResolveCurrentStep(ctx, workflowID, exchangeID)
	if err != nil {
		return nil, err
	}

	base := c.exchangeIssuerURL(workflowID, exchangeID)

	protocols := map[string]string{}

	if step.InviteRequest != nil && step.InviteRequest.Enabled {
		protocols["inviteRequest"] = base + "/invite-request/response"
	} else {
		protocols["vcapi"] = base
	}

	if exchange.OpenID != nil {
		protocols["OID4VCI"] = base + "/openid/credential-issuer"
	}

	if step.OpenID != nil {
		protocols["OID4VP"] = base + "/openid/authorization/request"
	}

	return protocols, nil
}
