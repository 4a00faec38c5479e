package model

import "time"

// ExchangeState is the state machine's three states.
type ExchangeState string

const (
	StatePending  ExchangeState = "pending"
	StateActive   ExchangeState = "active"
	StateComplete ExchangeState = "complete"
)

// Exchange is one run of a workflow across one or more protocol
// round-trips.
type Exchange struct {
	ID         string `json:"id" bson:"_id"`
	WorkflowID string `json:"workflowId" bson:"workflowId" validate:"required"`

	// Sequence backs optimistic concurrency: every successful commit
	// increments it by exactly one.
	Sequence int64 `json:"sequence" bson:"sequence"`

	State ExchangeState `json:"state" bson:"state"`

	Expires time.Time `json:"expires" bson:"expires"`

	Step string `json:"step" bson:"step"`

	Variables map[string]any `json:"variables" bson:"variables"`

	OpenID *ExchangeOpenID `json:"openId,omitempty" bson:"openId,omitempty"`

	LastError *ErrorRecord `json:"lastError,omitempty" bson:"lastError,omitempty"`

	// Protocols maps protocol name ("vcapi","OID4VCI","OID4VP",
	// "inviteRequest") -> resolvable endpoint URL, computed from the
	// service's configured BaseURL against the exchange's current
	// resolved step each time it is read.
	Protocols map[string]string `json:"protocols,omitempty" bson:"protocols,omitempty"`
}

// ErrorRecord is the persisted shape of exchange.lastError.
type ErrorRecord struct {
	Name    string `json:"name" bson:"name"`
	Message string `json:"message" bson:"message"`
	Details any    `json:"details,omitempty" bson:"details,omitempty"`
}

// ExchangeOpenID is the issuer-side OID4VCI context carried on an
// exchange: pre-authorized code, nonce, access tokens, and the
// credential requests the engine expects to see at the credential
// endpoint.
type ExchangeOpenID struct {
	ExpectedCredentialRequests []ExpectedCredentialRequest `json:"expectedCredentialRequests,omitempty" bson:"expectedCredentialRequests,omitempty"`

	PreAuthorizedCode string `json:"preAuthorizedCode,omitempty" bson:"preAuthorizedCode,omitempty"`
	// PreAuthorizedCodeConsumed is set the instant the code is redeemed
	// at the token endpoint; a second redemption attempt fails
	// NotAllowedError.
	PreAuthorizedCodeConsumed bool `json:"-" bson:"preAuthorizedCodeConsumed,omitempty"`

	TxCode string `json:"-" bson:"txCode,omitempty"`

	Nonce        string    `json:"nonce,omitempty" bson:"nonce,omitempty"`
	NonceExpires time.Time `json:"nonceExpires,omitempty" bson:"nonceExpires,omitempty"`

	AccessTokens []AccessToken `json:"-" bson:"accessTokens,omitempty"`

	// AuthorizationRequest is the OID4VP AR most recently issued on this
	// exchange's OID4VP endpoint, kept so the direct_post handler can
	// validate the returned presentation_submission against it and so
	// variables.results.<step>.openId.authorizationRequest can be
	// reported back verbatim.
	AuthorizationRequest map[string]any `json:"authorizationRequest,omitempty" bson:"authorizationRequest,omitempty"`
}

// ExpectedCredentialRequest is one credential the issuer-side OID4VCI
// context expects the wallet to request, derived from the workflow's
// credential templates at exchange-creation time.
type ExpectedCredentialRequest struct {
	Format                  string `json:"format" bson:"format"`
	CredentialConfigurationID string `json:"credential_configuration_id,omitempty" bson:"credential_configuration_id,omitempty"`
}

// AccessToken is a single-exchange-scoped OID4VCI bearer token.
type AccessToken struct {
	Token     string    `json:"-" bson:"token"`
	Expires   time.Time `json:"-" bson:"expires"`
	DPoPJKT   string    `json:"-" bson:"dpopJkt,omitempty"`
	Consumed  bool      `json:"-" bson:"consumed,omitempty"`
}

// IsExpired reports whether the exchange's TTL has elapsed as of now.
func (e *Exchange) IsExpired(now time.Time) bool {
	return now.After(e.Expires)
}

// ResultsForStep returns the (possibly nil) recorded result map for the
// given step name under variables.results.
func (e *Exchange) ResultsForStep(step string) map[string]any {
	results, ok := e.Variables["results"].(map[string]any)
	if !ok {
		return nil
	}
	r, _ := results[step].(map[string]any)
	return r
}

// HasResultForStep reports whether variables.results.<step> has already
// been written: each step's result is written at most once.
func (e *Exchange) HasResultForStep(step string) bool {
	return e.ResultsForStep(step) != nil
}

// SetResultForStep writes variables.results.<step>, creating the
// "results" map if absent. Callers must have already checked
// HasResultForStep to preserve the at-most-once invariant.
func (e *Exchange) SetResultForStep(step string, result map[string]any) {
	if e.Variables == nil {
		e.Variables = map[string]any{}
	}
	results, ok := e.Variables["results"].(map[string]any)
	if !ok {
		results = map[string]any{}
		e.Variables["results"] = results
	}
	results[step] = result
}
