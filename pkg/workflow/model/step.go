package model

import "encoding/json"

// StepDescriptor is the evaluated form of a step -- the shape the
// engine consumes regardless of whether it came from static config or
// a stepTemplate evaluation.
type StepDescriptor struct {
	CreateChallenge bool `json:"createChallenge,omitempty" bson:"createChallenge,omitempty"`

	VerifiablePresentationRequest map[string]any `json:"verifiablePresentationRequest,omitempty" bson:"verifiablePresentationRequest,omitempty"`

	PresentationSchema *PresentationSchema `json:"presentationSchema,omitempty" bson:"presentationSchema,omitempty"`

	// AllowUnprotectedPresentation defaults to false when unset; the
	// Step Resolver fills this default in during Merge.
	AllowUnprotectedPresentation *bool `json:"allowUnprotectedPresentation,omitempty" bson:"allowUnprotectedPresentation,omitempty"`

	JWTDidProofRequest map[string]any `json:"jwtDidProofRequest,omitempty" bson:"jwtDidProofRequest,omitempty"`

	OpenID *StepOpenID `json:"openId,omitempty" bson:"openId,omitempty"`

	IssueRequests []IssueRequest `json:"issueRequests,omitempty" bson:"issueRequests,omitempty"`

	// VerifiableCredentials is a JSONata array-expression result:
	// out-of-band pre-issued VC values to emit verbatim.
	VerifiableCredentials []map[string]any `json:"verifiableCredentials,omitempty" bson:"verifiableCredentials,omitempty"`

	InviteRequest *InviteRequestDescriptor `json:"inviteRequest,omitempty" bson:"inviteRequest,omitempty"`

	// NextStep names the step to execute after this one completes; the
	// zero value means this step is terminal.
	NextStep string `json:"nextStep,omitempty" bson:"nextStep,omitempty"`
}

// AllowsUnprotectedPresentation resolves the tri-state
// AllowUnprotectedPresentation pointer to its spec default of false.
func (s *StepDescriptor) AllowsUnprotectedPresentation() bool {
	return s != nil && s.AllowUnprotectedPresentation != nil && *s.AllowUnprotectedPresentation
}

// IsTerminal reports whether this step has no successor.
func (s *StepDescriptor) IsTerminal() bool {
	return s == nil || s.NextStep == ""
}

// PresentationSchema is applied to a submitted VP before it is
// accepted.
type PresentationSchema struct {
	Type       string         `json:"type" bson:"type" validate:"required,eq=JsonSchema"`
	JSONSchema map[string]any `json:"jsonSchema" bson:"jsonSchema" validate:"required"`
}

// IssueRequest references a credential template (by id or index) plus
// per-request variable overrides merged into the template's evaluation
// environment.
type IssueRequest struct {
	CredentialTemplateID    string         `json:"credentialTemplateId,omitempty" bson:"credentialTemplateId,omitempty"`
	CredentialTemplateIndex *int           `json:"credentialTemplateIndex,omitempty" bson:"credentialTemplateIndex,omitempty"`
	Variables               map[string]any `json:"variables,omitempty" bson:"variables,omitempty"`
}

// InviteRequestDescriptor marks a step as the minimal invite-request
// protocol. A bare `true` in config decodes to an empty, non-nil
// descriptor.
type InviteRequestDescriptor struct {
	Enabled bool `json:"-" bson:"-"`
}

// StepOpenID is the OID4VP sub-descriptor: either the legacy
// single-client form or a multi-profile form.
type StepOpenID struct {
	// Legacy single-client form.
	CreateAuthorizationRequest bool   `json:"createAuthorizationRequest,omitempty" bson:"createAuthorizationRequest,omitempty"`
	ClientIDScheme             string `json:"client_id_scheme,omitempty" bson:"client_id_scheme,omitempty"`
	ClientID                   string `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ResponseMode               string `json:"response_mode,omitempty" bson:"response_mode,omitempty"`

	// ClientProfiles maps profile name -> per-profile config; when
	// present it takes precedence over the legacy single-client fields.
	ClientProfiles map[string]*ClientProfile `json:"clientProfiles,omitempty" bson:"clientProfiles,omitempty"`
}

// ClientProfile is one named OID4VP client configuration.
type ClientProfile struct {
	ResponseMode   string                  `json:"response_mode,omitempty" bson:"response_mode,omitempty" validate:"omitempty,oneof=direct_post direct_post.jwt"`
	ClientMetadata map[string]any          `json:"client_metadata,omitempty" bson:"client_metadata,omitempty"`
	ZcapReferenceIDs *ClientProfileZcapRefs `json:"zcapReferenceIds,omitempty" bson:"zcapReferenceIds,omitempty"`
}

// ClientProfileZcapRefs names the zcap reference-id used to sign a
// JAR for this client profile.
type ClientProfileZcapRefs struct {
	SignAuthorizationRequest string `json:"signAuthorizationRequest,omitempty" bson:"signAuthorizationRequest,omitempty"`
}

// RequireSignedRequestObject inspects client_metadata for the
// require_signed_request_object flag.
func (p *ClientProfile) RequireSignedRequestObject() bool {
	if p == nil || p.ClientMetadata == nil {
		return false
	}
	v, ok := p.ClientMetadata["require_signed_request_object"].(bool)
	return ok && v
}

func marshalStepDescriptor(d *StepDescriptor) ([]byte, error) {
	if d == nil {
		d = &StepDescriptor{}
	}
	return json.Marshal(d)
}

func marshalStepTemplateWrapper(t *StepTemplate) ([]byte, error) {
	return json.Marshal(struct {
		StepTemplate *StepTemplate `json:"stepTemplate"`
	}{StepTemplate: t})
}

func unmarshalStepSource(s *StepSource, data []byte) error {
	var wrapper struct {
		StepTemplate *StepTemplate `json:"stepTemplate"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if wrapper.StepTemplate != nil {
		s.StepTemplate = wrapper.StepTemplate
		return nil
	}

	descriptor := &StepDescriptor{}
	if err := json.Unmarshal(data, descriptor); err != nil {
		return err
	}
	s.Static = descriptor
	return nil
}
