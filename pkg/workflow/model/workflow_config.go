// Package model holds the exchanger's core data model: WorkflowConfig,
// StepDescriptor, CredentialTemplate and Exchange. It mirrors the
// shape (and bson/json tagging conventions) of pkg/model's document/
// config types, but is kept in its own package since it belongs to a
// different aggregate root than the rest of the domain.
package model

import (
	"net"

	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"
)

// WorkflowConfig is a tenant-owned template describing credential
// templates and an ordered graph of steps. It is immutable except via
// sequenced updates.
type WorkflowConfig struct {
	ID         string `json:"id" bson:"_id" validate:"required,url"`
	Controller string `json:"controller" bson:"controller" validate:"required"`
	Sequence   int64  `json:"sequence" bson:"sequence"`
	MeterID    string `json:"meterId" bson:"meterId" validate:"omitempty"`

	// Zcaps maps reference-id -> delegated capability. Recognized
	// reference-ids are zcap.RefIssue, RefCredentialStatus,
	// RefCreateChallenge, RefVerifyPresentation; any other key is a
	// user-defined extra (e.g. an OID4VP signAuthorizationRequest zcap
	// named per client-profile).
	Zcaps map[string]*zcap.Capability `json:"zcaps,omitempty" bson:"zcaps,omitempty"`

	CredentialTemplates []CredentialTemplate `json:"credentialTemplates,omitempty" bson:"credentialTemplates,omitempty"`

	// Steps maps step name -> raw step source, either a static
	// StepDescriptor or a dynamic stepTemplate.
	Steps map[string]*StepSource `json:"steps,omitempty" bson:"steps,omitempty" validate:"required"`

	InitialStep string `json:"initialStep" bson:"initialStep" validate:"required"`

	IssuerInstances []IssuerInstance `json:"issuerInstances,omitempty" bson:"issuerInstances,omitempty"`

	Authorization *AuthorizationConfig `json:"authorization,omitempty" bson:"authorization,omitempty"`

	// IPAllowList is a set of CIDR ranges; empty means unrestricted.
	IPAllowList []string `json:"ipAllowList,omitempty" bson:"ipAllowList,omitempty"`
}

// IssuerInstance is an alternate issuance backend a workflow may target
// for a subset of supported credential formats.
type IssuerInstance struct {
	SupportedFormats []string `json:"supportedFormats" bson:"supportedFormats" validate:"required"`
	ZcapReferenceIDs []string `json:"zcapReferenceIds" bson:"zcapReferenceIds" validate:"required"`
}

// AuthorizationConfig describes the OAuth2 access-control alternative to
// zcap-invoked writes.
type AuthorizationConfig struct {
	IssuerConfigURL string `json:"issuerConfigUrl,omitempty" bson:"issuerConfigUrl,omitempty" validate:"omitempty,url"`
	RequireDPoP     bool   `json:"requireDPoP,omitempty" bson:"requireDPoP,omitempty"`
}

// CredentialTemplate is a named, typed JSONata expression that must
// evaluate to a complete VC object.
type CredentialTemplate struct {
	ID       string `json:"id,omitempty" bson:"id,omitempty"`
	Type     string `json:"type" bson:"type" validate:"required,eq=jsonata"`
	Template string `json:"template" bson:"template" validate:"required"`
}

// StepSource is the closed variant a raw configured step takes: either a
// fully static StepDescriptor, or a stepTemplate JSONata expression that
// is evaluated per-request by the Step Resolver to produce one.
type StepSource struct {
	Static       *StepDescriptor `json:"-" bson:"static,omitempty"`
	StepTemplate *StepTemplate   `json:"stepTemplate,omitempty" bson:"stepTemplate,omitempty"`
}

// StepTemplate is the dynamic form of a step.
type StepTemplate struct {
	Type     string `json:"type" bson:"type" validate:"required,eq=jsonata"`
	Template string `json:"template" bson:"template" validate:"required"`
}

// IsDynamic reports whether this step must be resolved via the Template
// Evaluator rather than used as-is.
func (s *StepSource) IsDynamic() bool {
	return s != nil && s.StepTemplate != nil
}

// MarshalJSON flattens StepSource back to either the static descriptor's
// own JSON shape or {"stepTemplate": ...}, matching how workflow configs
// round-trip over the wire ("a mapping from step name ->
// StepDescriptor (static) or {stepTemplate: ...} (dynamic)").
func (s *StepSource) MarshalJSON() ([]byte, error) {
	if s.IsDynamic() {
		return marshalStepTemplateWrapper(s.StepTemplate)
	}
	return marshalStepDescriptor(s.Static)
}

// UnmarshalJSON accepts either shape and stores it in the matching field.
func (s *StepSource) UnmarshalJSON(data []byte) error {
	return unmarshalStepSource(s, data)
}

// ValidCIDRs checks every configured CIDR parses; used by the Workflow
// Config Registry during validation.
func (w *WorkflowConfig) ValidCIDRs() error {
	for _, c := range w.IPAllowList {
		if _, _, err := net.ParseCIDR(c); err != nil {
			return err
		}
	}
	return nil
}

// IPAllowed reports whether ip is permitted by the workflow's IPAllowList.
// An empty allow-list permits everything.
func (w *WorkflowConfig) IPAllowed(ip net.IP) bool {
	if len(w.IPAllowList) == 0 {
		return true
	}
	for _, c := range w.IPAllowList {
		_, block, err := net.ParseCIDR(c)
		if err != nil {
			continue
		}
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
