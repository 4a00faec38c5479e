// Package registry implements the Workflow Config Registry's validation
// half: the structural and cross-referential checks a WorkflowConfig
// must pass before it is persisted, on top of the per-field struct
// tags already enforced by pkg/helpers.NewValidator.
package registry

import (
	"context"

	"github.com/sunet/vc-exchanger/pkg/helpers"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"
)

// knownReferenceIDs are the zcap reference-ids the engine itself
// understands; anything else is a caller-defined extra (e.g. a
// per-client-profile signAuthorizationRequest zcap) and is allowed.
var knownReferenceIDs = map[string]bool{
	zcap.RefIssue:               true,
	zcap.RefCredentialStatus:    true,
	zcap.RefCreateChallenge:     true,
	zcap.RefVerifyPresentation:  true,
	zcap.RefSignAuthorizationReq: true,
}

// Registry validates WorkflowConfig documents prior to create/update.
type Registry struct{}

func New() *Registry {
	return &Registry{}
}

// ValidateForCreate checks a freshly-submitted WorkflowConfig. The
// caller is responsible for rejecting a non-zero sequence before
// calling this ("sequence=0 on create").
func (r *Registry) ValidateForCreate(ctx context.Context, cfg *wmodel.WorkflowConfig) error {
	if cfg.Sequence != 0 {
		return werrors.Validation("sequence must be 0 on create")
	}
	return r.validate(ctx, cfg)
}

// ValidateForUpdate checks a WorkflowConfig about to replace an
// existing one; expectedSequence must equal the config's own Sequence
// field as submitted by the caller (the store enforces atomicity, this
// enforces monotonicity of intent).
func (r *Registry) ValidateForUpdate(ctx context.Context, cfg *wmodel.WorkflowConfig, currentSequence int64) error {
	if cfg.Sequence != currentSequence+1 {
		return werrors.Newf(werrors.KindValidation, "sequence must advance to %d, got %d", currentSequence+1, cfg.Sequence)
	}
	return r.validate(ctx, cfg)
}

func (r *Registry) validate(ctx context.Context, cfg *wmodel.WorkflowConfig) error {
	if err := helpers.CheckSimple(cfg); err != nil {
		return werrors.WithDetails(werrors.KindValidation, "workflow config failed schema validation", err.Error())
	}

	if err := cfg.ValidCIDRs(); err != nil {
		return werrors.WithDetails(werrors.KindValidation, "invalid ipAllowList entry", err.Error())
	}

	if err := r.validateSteps(cfg); err != nil {
		return err
	}

	if err := r.validateCredentialTemplates(cfg); err != nil {
		return err
	}

	if err := r.validateIssuerInstances(cfg); err != nil {
		return err
	}

	return nil
}

// validateSteps checks initialStep and every nextStep/dynamic step name
// resolves to a configured step, and that dynamic steps carry a
// non-empty jsonata template.
func (r *Registry) validateSteps(cfg *wmodel.WorkflowConfig) error {
	if _, ok := cfg.Steps[cfg.InitialStep]; !ok {
		return werrors.Newf(werrors.KindValidation, "initialStep %q is not a configured step", cfg.InitialStep)
	}

	for name, src := range cfg.Steps {
		if src.IsDynamic() {
			if src.StepTemplate.Type != "jsonata" {
				return werrors.Newf(werrors.KindValidation, "step %q: stepTemplate.type must be \"jsonata\"", name)
			}
			if src.StepTemplate.Template == "" {
				return werrors.Newf(werrors.KindValidation, "step %q: stepTemplate.template must not be empty", name)
			}
			continue
		}

		if src.Static == nil {
			return werrors.Newf(werrors.KindValidation, "step %q has neither a static descriptor nor a stepTemplate", name)
		}

		next := src.Static.NextStep
		if next != "" {
			if _, ok := cfg.Steps[next]; !ok {
				return werrors.Newf(werrors.KindValidation, "step %q: nextStep %q is not a configured step", name, next)
			}
		}

		if err := r.validateStaticStep(cfg, name, src.Static); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) validateStaticStep(cfg *wmodel.WorkflowConfig, name string, d *wmodel.StepDescriptor) error {
	if d.VerifiablePresentationRequest != nil || d.PresentationSchema != nil {
		if !r.hasZcap(cfg, zcap.RefCreateChallenge) && d.CreateChallenge {
			return werrors.Newf(werrors.KindValidation, "step %q: createChallenge requires a %q zcap", name, zcap.RefCreateChallenge)
		}
		if !r.hasZcap(cfg, zcap.RefVerifyPresentation) {
			return werrors.Newf(werrors.KindValidation, "step %q: a presentation step requires a %q zcap", name, zcap.RefVerifyPresentation)
		}
	}

	for i, issueReq := range d.IssueRequests {
		if issueReq.CredentialTemplateID == "" && issueReq.CredentialTemplateIndex == nil {
			return werrors.Newf(werrors.KindValidation, "step %q: issueRequests[%d] names no credential template", name, i)
		}
		if !r.hasZcap(cfg, zcap.RefIssue) {
			return werrors.Newf(werrors.KindValidation, "step %q: issueRequests present but no %q zcap configured", name, zcap.RefIssue)
		}
	}

	if d.OpenID != nil && len(d.OpenID.ClientProfiles) > 0 {
		for profileName, profile := range d.OpenID.ClientProfiles {
			if profile.RequireSignedRequestObject() {
				if profile.ZcapReferenceIDs == nil || profile.ZcapReferenceIDs.SignAuthorizationRequest == "" {
					return werrors.Newf(werrors.KindValidation, "step %q: client profile %q requires a signed request object but names no signing zcap", name, profileName)
				}
				if !r.hasZcap(cfg, profile.ZcapReferenceIDs.SignAuthorizationRequest) {
					return werrors.Newf(werrors.KindValidation, "step %q: client profile %q references unknown zcap %q", name, profileName, profile.ZcapReferenceIDs.SignAuthorizationRequest)
				}
			}
		}
	}

	return nil
}

// validateCredentialTemplates requires an "issue" zcap whenever any
// credential templates are configured.
func (r *Registry) validateCredentialTemplates(cfg *wmodel.WorkflowConfig) error {
	if len(cfg.CredentialTemplates) == 0 {
		return nil
	}
	if !r.hasZcap(cfg, zcap.RefIssue) {
		return werrors.Validation("credentialTemplates configured but no \"issue\" zcap present")
	}

	seen := map[string]bool{}
	for i, t := range cfg.CredentialTemplates {
		if t.ID == "" {
			continue
		}
		if seen[t.ID] {
			return werrors.Newf(werrors.KindValidation, "credentialTemplates[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (r *Registry) validateIssuerInstances(cfg *wmodel.WorkflowConfig) error {
	for i, inst := range cfg.IssuerInstances {
		for _, refID := range inst.ZcapReferenceIDs {
			if !r.hasZcap(cfg, refID) {
				return werrors.Newf(werrors.KindValidation, "issuerInstances[%d]: references unknown zcap %q", i, refID)
			}
		}
	}
	return nil
}

func (r *Registry) hasZcap(cfg *wmodel.WorkflowConfig, refID string) bool {
	_, ok := cfg.Zcaps[refID]
	return ok
}

// KnownReferenceID reports whether refID is one the engine itself
// interprets (as opposed to a caller-defined extra such as a
// per-profile signing zcap).
func KnownReferenceID(refID string) bool {
	return knownReferenceIDs[refID]
}
