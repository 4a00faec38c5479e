// Package apiv1 implements the exchanger's protocol adapters: VC-API,
// OID4VCI, OID4VP and invite-request, plus the workflow-config/exchange
// CRUD surface. It mirrors
// internal/apigw/apiv1's shape -- a single Client wiring the db
// service, tracer and logger, with one file per protocol concern the
// way internal/apigw/apiv1 splits handlers_issuer.go/handlers_*.go.
package apiv1

import (
	"context"

	"github.com/sunet/vc-exchanger/internal/exchanger/db"
	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/model"
	"github.com/sunet/vc-exchanger/pkg/trace"
	"github.com/sunet/vc-exchanger/pkg/workflow/engine"
	"github.com/sunet/vc-exchanger/pkg/workflow/issuerclient"
	"github.com/sunet/vc-exchanger/pkg/workflow/registry"
	"github.com/sunet/vc-exchanger/pkg/workflow/resolver"
	"github.com/sunet/vc-exchanger/pkg/workflow/template"
	"github.com/sunet/vc-exchanger/pkg/workflow/verifierclient"
	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"
)

// Client is the exchanger's business-logic layer.
type Client struct {
	cfg    *model.Cfg
	log    *logger.Log
	tracer *trace.Tracer

	store      *db.Service
	registry   *registry.Registry
	resolver   *resolver.Resolver
	engine     *engine.Engine
	evaluator  *template.Evaluator
	verifier   *verifierclient.Client
	issuer     *issuerclient.Client
	invoker    *zcap.Invoker
}

// New wires the exchanger's business-logic layer, the way
// internal/apigw/apiv1.New wires kvclient/dbService/simpleQueueService.
func New(ctx context.Context, store *db.Service, tracer *trace.Tracer, cfg *model.Cfg, log *logger.Log) (*Client, error) {
	evaluator := template.New(cfg.Exchanger.JSONataEvalTimeout, log)
	invoker := zcap.NewInvoker(0, log)

	c := &Client{
		cfg:       cfg,
		log:       log,
		tracer:    tracer,
		store:     store,
		registry:  registry.New(),
		resolver:  resolver.New(evaluator),
		evaluator: evaluator,
		verifier:  verifierclient.New(invoker),
		issuer:    issuerclient.New(invoker, evaluator),
		invoker:   invoker,
	}
	c.engine = engine.New(store, c.resolver, log)

	return c, nil
}

// Close releases the template evaluator's background cache goroutine.
func (c *Client) Close() {
	c.evaluator.Close()
}
