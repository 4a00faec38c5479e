// Package verifierclient implements the Verifier Client: the
// exchanger's side of the createChallenge/verifyPresentation protocol
// against an external Verifier collaborator, invoked through a
// delegated zcap. Schema validation of submitted presentations is done
// locally with kaptinlin/jsonschema, the same library
// pkg/helpers.ValidateDocumentData validates document data with.
package verifierclient

import (
	"context"
	"encoding/json"

	"github.com/kaptinlin/jsonschema"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"
)

// Client invokes a workflow's createChallenge and verifyPresentation
// zcaps against its delegated Verifier collaborator.
type Client struct {
	invoker *zcap.Invoker
}

func New(invoker *zcap.Invoker) *Client {
	return &Client{invoker: invoker}
}

// ChallengeResponse is the verifier collaborator's createChallenge
// response.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}

// CreateChallenge invokes the workflow's createChallenge zcap.
func (c *Client) CreateChallenge(ctx context.Context, cfg *wmodel.WorkflowConfig) (string, error) {
	cap, ok := cfg.Zcaps[zcap.RefCreateChallenge]
	if !ok {
		return "", werrors.New(werrors.KindData, "workflow has no createChallenge zcap configured")
	}

	var resp ChallengeResponse
	if err := c.invoker.InvokeZcap(ctx, cap, nil, &resp); err != nil {
		return "", werrors.Wrap(werrors.KindVerification, "createChallenge invocation failed", err)
	}
	return resp.Challenge, nil
}

// VerifyRequest is sent to the verifier collaborator's
// verifyPresentation endpoint.
type VerifyRequest struct {
	VerifiablePresentation map[string]any `json:"verifiablePresentation"`
	Options                map[string]any `json:"options,omitempty"`
}

// VerifyResult is the verifier collaborator's verifyPresentation
// response: a boolean verified flag plus per-credential results,
// carried into VerificationError's details verbatim on failure.
type VerifyResult struct {
	Verified           bool  `json:"verified"`
	CredentialResults   []any `json:"credentialResults,omitempty"`
	Error              any   `json:"error,omitempty"`
}

// VerifyPresentation validates vp against step's presentationSchema (if
// any), checks the unprotected-presentation policy, then invokes the
// workflow's verifyPresentation zcap and turns a negative result into a
// VerificationError carrying the raw credentialResults.
// options carries presentation-verification hints derived from the
// inbound protocol (e.g. the VPR<->presentation_definition bridge's
// domain/challenge/acceptedCryptosuites for an OID4VP-sourced
// presentation); nil for a plain VC-API presentation where the step's
// own VerifiablePresentationRequest already carries that information.
func (c *Client) VerifyPresentation(ctx context.Context, cfg *wmodel.WorkflowConfig, step *wmodel.StepDescriptor, vp map[string]any, isProtected bool, options map[string]any) (*VerifyResult, error) {
	if !isProtected && !step.AllowsUnprotectedPresentation() {
		return nil, werrors.New(werrors.KindVerification, "unprotected presentations are not allowed for this step")
	}

	if step.PresentationSchema != nil {
		if err := validateAgainstSchema(step.PresentationSchema, vp); err != nil {
			return nil, err
		}
	}

	cap, ok := cfg.Zcaps[zcap.RefVerifyPresentation]
	if !ok {
		return nil, werrors.New(werrors.KindData, "workflow has no verifyPresentation zcap configured")
	}

	req := VerifyRequest{VerifiablePresentation: vp, Options: options}
	var result VerifyResult
	if err := c.invoker.InvokeZcap(ctx, cap, req, &result); err != nil {
		return nil, werrors.Wrap(werrors.KindVerification, "verifyPresentation invocation failed", err)
	}

	if !result.Verified {
		return nil, werrors.Verification("presentation verification failed", result.CredentialResults)
	}

	return &result, nil
}

func validateAgainstSchema(schema *wmodel.PresentationSchema, vp map[string]any) error {
	schemaBytes, err := json.Marshal(schema.JSONSchema)
	if err != nil {
		return werrors.Wrap(werrors.KindValidation, "presentationSchema not serializable", err)
	}

	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(schemaBytes)
	if err != nil {
		return werrors.Wrap(werrors.KindValidation, "presentationSchema does not compile", err)
	}

	result := compiled.Validate(vp)
	if !result.IsValid() {
		return werrors.WithDetails(werrors.KindValidation, "presentation does not match presentationSchema", result)
	}

	return nil
}
