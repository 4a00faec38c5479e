package apiv1

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sunet/vc-exchanger/pkg/openid4vp"
	"github.com/sunet/vc-exchanger/pkg/workflow/engine"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

var defaultAcceptedCryptosuites = []string{"ecdsa-rdfc-2019", "eddsa-rdfc-2022", "Ed25519Signature2020"}

// AuthorizationRequestResult is either the plain JSON authorization
// request, or a JAR (request_object) when the client profile requires
// a signed request object.
type AuthorizationRequestResult struct {
	AuthorizationRequest map[string]any
	RequestObjectJWT      string
}

// GetAuthorizationRequest implements
// GET {exchangeId}/openid/client[s/{profile}]/authorization/request
// . On first retrieval it transitions the exchange to
// active.
func (c *Client) GetAuthorizationRequest(ctx context.Context, workflowID, exchangeID, profileName string) (*AuthorizationRequestResult, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vp_authorization_request")
	defer span.End()

	if profileName == "" {
		profileName = "default"
	}

	var result *AuthorizationRequestResult

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, nil, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if step.OpenID == nil || !step.OpenID.CreateAuthorizationRequest {
			return nil, werrors.New(werrors.KindData, "this step does not create an OID4VP authorization request")
		}

		ar, err := c.buildAuthorizationRequest(ctx, cfg, exchange, step, profileName)
		if err != nil {
			return nil, err
		}

		profile := resolveClientProfile(step.OpenID, profileName)

		result = &AuthorizationRequestResult{AuthorizationRequest: ar}
		if profile.RequireSignedRequestObject() {
			jar, err := c.signAuthorizationRequestJAR(ctx, cfg, profile, ar)
			if err != nil {
				return nil, err
			}
			result.RequestObjectJWT = jar
		}

		if exchange.OpenID == nil {
			exchange.OpenID = &wmodel.ExchangeOpenID{}
		}
		exchange.OpenID.AuthorizationRequest = ar

		return &engine.Intent{
			Response: result,
			// The first retrieval moves pending -> active without
			// advancing to a different step.
			Advance: exchange.State == wmodel.StatePending,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func resolveClientProfile(openID *wmodel.StepOpenID, profileName string) *wmodel.ClientProfile {
	if openID.ClientProfiles != nil {
		if p, ok := openID.ClientProfiles[profileName]; ok {
			return p
		}
	}
	return &wmodel.ClientProfile{ResponseMode: openID.ResponseMode}
}

// buildAuthorizationRequest assembles the OID4VP AR from the step's
// VerifiablePresentationRequest, per the VPR <-> presentation_definition
// bridge.
func (c *Client) buildAuthorizationRequest(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor, profileName string) (map[string]any, error) {
	var profile *wmodel.ClientProfile
	if step.OpenID != nil {
		profile = resolveClientProfile(step.OpenID, profileName)
	} else {
		profile = &wmodel.ClientProfile{}
	}

	responseMode := profile.ResponseMode
	if responseMode == "" {
		responseMode = "direct_post"
	}

	responseURI := fmt.Sprintf("%s/openid/clients/%s/authorization/response", c.exchangeIssuerURL(cfg.ID, exchange.ID), profileName)

	nonce := exchange.ID
	if step.CreateChallenge {
		ch, err := c.verifier.CreateChallenge(ctx, cfg)
		if err != nil {
			return nil, err
		}
		nonce = ch
	}

	pd := vprToPresentationDefinition(step.VerifiablePresentationRequest)

	clientID := cfg.ID
	clientIDScheme := "x509_san_dns"
	if step.OpenID != nil {
		if step.OpenID.ClientID != "" {
			clientID = step.OpenID.ClientID
		}
		if step.OpenID.ClientIDScheme != "" {
			clientIDScheme = step.OpenID.ClientIDScheme
		}
	}

	ar := map[string]any{
		"client_id":               clientID,
		"client_id_scheme":        clientIDScheme,
		"response_type":           "vp_token",
		"response_mode":           responseMode,
		"response_uri":            responseURI,
		"nonce":                   nonce,
		"state":                   exchange.ID,
		"presentation_definition": pd,
	}
	if profile.ClientMetadata != nil {
		ar["client_metadata"] = profile.ClientMetadata
	}

	return ar, nil
}

// vprToPresentationDefinition derives a minimal presentation_definition
// from a VC-API VerifiablePresentationRequest's query elements, keyed
// by query index.
func vprToPresentationDefinition(vpr map[string]any) map[string]any {
	descriptors := []map[string]any{}

	if queries, ok := vpr["query"].([]any); ok {
		for i, q := range queries {
			descriptors = append(descriptors, map[string]any{
				"id":          fmt.Sprintf("input_%d", i),
				"constraints": q,
			})
		}
	}

	return map[string]any{
		"id":                uuid.NewString(),
		"input_descriptors": descriptors,
	}
}

func (c *Client) signAuthorizationRequestJAR(ctx context.Context, cfg *wmodel.WorkflowConfig, profile *wmodel.ClientProfile, ar map[string]any) (string, error) {
	if profile.ZcapReferenceIDs == nil || profile.ZcapReferenceIDs.SignAuthorizationRequest == "" {
		return "", werrors.New(werrors.KindData, "client profile requires a signed request object but names no signing zcap")
	}

	cap, ok := cfg.Zcaps[profile.ZcapReferenceIDs.SignAuthorizationRequest]
	if !ok {
		return "", werrors.New(werrors.KindData, "unknown signAuthorizationRequest zcap reference")
	}

	var signed struct {
		JWT string `json:"jwt"`
	}
	if err := c.invoker.InvokeZcap(ctx, cap, ar, &signed); err != nil {
		return "", werrors.Wrap(werrors.KindData, "failed to sign authorization request via delegated zcap", err)
	}

	return signed.JWT, nil
}

// AuthorizationResponse is the POST
// {exchangeId}/openid/client[s/{profile}]/authorization/response body.
type AuthorizationResponse struct {
	VPToken                string                            `json:"vp_token" validate:"required"`
	PresentationSubmission *openid4vp.PresentationSubmission `json:"presentation_submission,omitempty"`
	State                  string                             `json:"state,omitempty"`
}

// PostAuthorizationResponse implements the OID4VP response endpoint,
// mapping into the shared VP verification path.
func (c *Client) PostAuthorizationResponse(ctx context.Context, workflowID, exchangeID, profileName string, req AuthorizationResponse) (*openid4vp.DirectPostResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vp_authorization_response")
	defer span.End()

	var response *openid4vp.DirectPostResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, map[string]any{"presentation_submission": req.PresentationSubmission}, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if exchange.OpenID == nil || len(exchange.OpenID.AuthorizationRequest) == 0 {
			return nil, werrors.New(werrors.KindInvalidState, "no authorization request was issued for this exchange")
		}

		vp, err := decodeVPToken(req.VPToken)
		if err != nil {
			return nil, err
		}

		options := effectiveVPROptions(exchange.OpenID.AuthorizationRequest)
		if _, err := c.verifier.VerifyPresentation(ctx, cfg, step, vp, true, options); err != nil {
			return nil, err
		}

		did := extractHolderDID(vp)

		responseVCs := make([]map[string]any, 0, len(step.VerifiableCredentials)+len(step.IssueRequests))
		responseVCs = append(responseVCs, step.VerifiableCredentials...)

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

		response = &openid4vp.DirectPostResponse{}

		return &engine.Intent{
			Response: response,
			StepResult: map[string]any{
				"vpToken":                req.VPToken,
				"did":                    did,
				"authorizationRequest":   exchange.OpenID.AuthorizationRequest,
				"presentationSubmission": req.PresentationSubmission,
				"verifiableCredentials":  responseVCs,
			},
			Advance: true,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// decodeVPToken accepts either a bare JSON VP or a VC-JWT compact
// serialization, transforming the latter's embedded credentials into v2
// EnvelopedVerifiableCredential objects before result-capture (spec
// §4.G tie-break).
func decodeVPToken(vpToken string) (map[string]any, error) {
	if len(vpToken) > 0 && vpToken[0] == '{' {
		var vp map[string]any
		if err := json.Unmarshal([]byte(vpToken), &vp); err != nil {
			return nil, werrors.Wrap(werrors.KindValidation, "vp_token is not valid JSON", err)
		}
		return vp, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(vpToken, jwt.MapClaims{})
	if err != nil {
		return nil, werrors.Wrap(werrors.KindValidation, "vp_token is neither JSON nor a valid JWT", err)
	}

	claims, _ := token.Claims.(jwt.MapClaims)
	vp, _ := claims["vp"].(map[string]any)
	if vp == nil {
		return nil, werrors.New(werrors.KindValidation, "VC-JWT vp_token has no vp claim")
	}

	if creds, ok := vp["verifiableCredential"].([]any); ok {
		enveloped := make([]any, len(creds))
		for i, cred := range creds {
			if s, ok := cred.(string); ok {
				enveloped[i] = map[string]any{
					"@context": "https://www.w3.org/ns/credentials/v2",
					"id":       "data:application/vc-ld+jwt," + s,
					"type":     "EnvelopedVerifiableCredential",
				}
				continue
			}
			enveloped[i] = cred
		}
		vp["verifiableCredential"] = enveloped
	}

	return vp, nil
}

// effectiveVPROptions derives the incoming-direction VPR<->AR bridge:
// domain = response_uri, challenge = nonce, and the server's broad
// default accepted-cryptosuites list (OID4VP carries no
// acceptedMethods equivalent).
func effectiveVPROptions(ar map[string]any) map[string]any {
	if ar == nil {
		return nil
	}
	options := map[string]any{
		"acceptedCryptosuites": defaultAcceptedCryptosuites,
	}
	if responseURI, ok := ar["response_uri"].(string); ok {
		options["domain"] = responseURI
	}
	if nonce, ok := ar["nonce"].(string); ok {
		options["challenge"] = nonce
	}
	return options
}
