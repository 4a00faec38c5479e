package apiv1

import (
	"context"
	"time"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
)

// CreateExchangeRequest is the POST /workflows/{id}/exchanges body:
// either ttl (seconds) or an absolute expires may be given;
// variables/openId seed the new exchange's starting state.
type CreateExchangeRequest struct {
	TTL       int                      `json:"ttl,omitempty"`
	Expires   time.Time                `json:"expires,omitempty"`
	Variables map[string]any           `json:"variables,omitempty"`
	OpenID    *wmodel.ExchangeOpenID   `json:"openId,omitempty"`
}

// CreateExchange creates a new exchange for workflowID and returns it.
func (c *Client) CreateExchange(ctx context.Context, workflowID string, req CreateExchangeRequest) (*wmodel.Exchange, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:create_exchange")
	defer span.End()

	cfg, err := c.store.WorkflowConfigColl.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	var ttl time.Duration
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}

	return c.engine.CreateExchange(ctx, cfg, ttl, req.Expires, c.cfg.Exchanger.DefaultExchangeTTL, c.cfg.Exchanger.MaxExchangeTTL, req.Variables, req.OpenID)
}

// GetExchange returns the current, authenticated view of an exchange.
func (c *Client) GetExchange(ctx context.Context, workflowID, exchangeID string) (*wmodel.Exchange, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:get_exchange")
	defer span.End()

	exchange, err := c.engine.LoadForRead(ctx, workflowID, exchangeID)
	if err != nil {
		return nil, err
	}

	if protocols, err := c.Protocols(ctx, workflowID, exchangeID); err == nil {
		exchange.Protocols = protocols
	}

	return exchange, nil
}
