// Package issuerclient implements the Issuer Client: it materializes
// credential templates via the Template Evaluator, then invokes a
// workflow's delegated "issue" zcap against the external Issuer
// collaborator, one credential or a concurrent batch at a time.
package issuerclient

import (
	"context"
	"sync"

	"github.com/sunet/vc-exchanger/pkg/openid4vp"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/template"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"
)

// Client issues credentials on behalf of a workflow.
type Client struct {
	invoker   *zcap.Invoker
	evaluator *template.Evaluator
}

func New(invoker *zcap.Invoker, evaluator *template.Evaluator) *Client {
	return &Client{invoker: invoker, evaluator: evaluator}
}

// IssueRequestBody is sent to the issuer collaborator's issue endpoint.
type IssueRequestBody struct {
	Credential map[string]any `json:"credential"`
	Options    map[string]any `json:"options,omitempty"`
}

// EnvelopedVerifiableCredential is the issuer collaborator's response:
// either the issued credential embedded directly, or an envelope
// identifying the format it is encoded in (ldp_vc, jwt_vc_json-ld, or a
// bare VC-JWT compact serialization).
type EnvelopedVerifiableCredential struct {
	ID                     string         `json:"id,omitempty"`
	Type                   string         `json:"type,omitempty"`
	VerifiableCredential   map[string]any `json:"verifiableCredential,omitempty"`
}

// resolveTemplate looks up a credentialTemplate by id or index, the two
// ways an IssueRequest may reference one.
func resolveTemplate(cfg *wmodel.WorkflowConfig, req wmodel.IssueRequest) (*wmodel.CredentialTemplate, error) {
	if req.CredentialTemplateID != "" {
		for i := range cfg.CredentialTemplates {
			if cfg.CredentialTemplates[i].ID == req.CredentialTemplateID {
				return &cfg.CredentialTemplates[i], nil
			}
		}
		return nil, werrors.Newf(werrors.KindData, "no credentialTemplate with id %q", req.CredentialTemplateID)
	}
	if req.CredentialTemplateIndex != nil {
		idx := *req.CredentialTemplateIndex
		if idx < 0 || idx >= len(cfg.CredentialTemplates) {
			return nil, werrors.Newf(werrors.KindData, "credentialTemplateIndex %d out of range", idx)
		}
		return &cfg.CredentialTemplates[idx], nil
	}
	return nil, werrors.New(werrors.KindData, "issueRequest names neither credentialTemplateId nor credentialTemplateIndex")
}

// Issue materializes one IssueRequest's template and invokes the
// workflow's "issue" zcap to produce a single credential.
func (c *Client) Issue(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, req wmodel.IssueRequest) (*EnvelopedVerifiableCredential, error) {
	tmpl, err := resolveTemplate(cfg, req)
	if err != nil {
		return nil, err
	}

	vars := map[string]any{}
	for k, v := range exchange.Variables {
		vars[k] = v
	}
	for k, v := range req.Variables {
		vars[k] = v
	}

	env := &template.Env{
		Globals: template.Globals{
			Workflow: template.GlobalsWorkflow{ID: cfg.ID, Controller: cfg.Controller},
			Exchange: template.GlobalsExchange{ID: exchange.ID, State: string(exchange.State)},
		},
		Variables: vars,
	}

	credential, err := c.evaluator.EvaluateCredential(ctx, tmpl.Template, env)
	if err != nil {
		return nil, err
	}

	cap, ok := cfg.Zcaps[zcap.RefIssue]
	if !ok {
		return nil, werrors.New(werrors.KindData, "workflow has no \"issue\" zcap configured")
	}

	var enveloped EnvelopedVerifiableCredential
	if err := c.invoker.InvokeZcap(ctx, cap, IssueRequestBody{Credential: credential}, &enveloped); err != nil {
		return nil, werrors.Wrap(werrors.KindData, "issue invocation failed", err)
	}

	return &enveloped, nil
}

type indexedResult struct {
	index int
	vc    *EnvelopedVerifiableCredential
	err   error
}

// IssueBatch issues every IssueRequest in reqs concurrently, returning
// results in the same order they were requested (concurrent,
// order-preserving batch issuance). The first error encountered is
// returned; partial results up to that point are discarded by the
// caller, since a step's result is written atomically or not at all.
func (c *Client) IssueBatch(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, reqs []wmodel.IssueRequest) ([]*EnvelopedVerifiableCredential, error) {
	results := make([]*EnvelopedVerifiableCredential, len(reqs))
	resultCh := make(chan indexedResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req wmodel.IssueRequest) {
			defer wg.Done()
			vc, err := c.Issue(ctx, cfg, exchange, req)
			resultCh <- indexedResult{index: i, vc: vc, err: err}
		}(i, req)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		results[r.index] = r.vc
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// supportedFormats names the credential encodings the issuer client
// understands how to envelope, referenced by internal/exchanger/apiv1
// when negotiating an OID4VCI credential response's format field.
var supportedFormats = []string{openid4vp.FormatLdpVCDCQL, "jwt_vc_json-ld", openid4vp.FormatJwtVCJson}

// SupportedFormats returns the credential formats the issuer client can
// produce.
func SupportedFormats() []string {
	return supportedFormats
}
