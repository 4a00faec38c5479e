// Package resolver implements the Step Resolver: given an exchange and
// the step it is currently on, produce a concrete StepDescriptor,
// either by returning the configured static one as-is or by evaluating
// its stepTemplate through the Template Evaluator.
package resolver

import (
	"context"
	"encoding/json"

	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/template"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// Resolver resolves raw step sources into concrete StepDescriptors.
type Resolver struct {
	evaluator *template.Evaluator
}

func New(evaluator *template.Evaluator) *Resolver {
	return &Resolver{evaluator: evaluator}
}

// Resolve looks up stepName in cfg.Steps and returns its concrete
// StepDescriptor. requestInput is merged into the evaluation
// environment's variables (on top of exchange.Variables) for dynamic
// steps, letting a stepTemplate react to the inbound request (e.g. an
// OID4VP wallet's VP Token).
func (r *Resolver) Resolve(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, stepName string, requestInput map[string]any) (*wmodel.StepDescriptor, error) {
	src, ok := cfg.Steps[stepName]
	if !ok {
		return nil, werrors.Newf(werrors.KindData, "exchange references unknown step %q", stepName)
	}

	var descriptor *wmodel.StepDescriptor
	if src.IsDynamic() {
		env := r.buildEnv(cfg, exchange, requestInput)
		d, err := r.evaluateStepTemplate(ctx, src.StepTemplate.Template, env)
		if err != nil {
			return nil, err
		}
		descriptor = d
	} else {
		descriptor = src.Static
	}

	return applyDefaults(descriptor), nil
}

func (r *Resolver) buildEnv(cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, requestInput map[string]any) *template.Env {
	vars := map[string]any{}
	for k, v := range exchange.Variables {
		vars[k] = v
	}
	if requestInput != nil {
		vars["request"] = requestInput
	}

	return &template.Env{
		Globals: template.Globals{
			Workflow: template.GlobalsWorkflow{ID: cfg.ID, Controller: cfg.Controller},
			Exchange: template.GlobalsExchange{ID: exchange.ID, State: string(exchange.State), Expires: exchange.Expires.Format(jsonTimeLayout)},
		},
		Variables: vars,
	}
}

const jsonTimeLayout = "2006-01-02T15:04:05Z07:00"

func (r *Resolver) evaluateStepTemplate(ctx context.Context, expression string, env *template.Env) (*wmodel.StepDescriptor, error) {
	var raw map[string]any
	if err := r.evaluator.Evaluate(ctx, expression, env, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, werrors.New(werrors.KindData, "stepTemplate evaluated to null")
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, werrors.Wrap(werrors.KindData, "stepTemplate result not serializable", err)
	}

	var descriptor wmodel.StepDescriptor
	if err := json.Unmarshal(b, &descriptor); err != nil {
		return nil, werrors.Wrap(werrors.KindData, "stepTemplate result did not match StepDescriptor shape", err)
	}

	return &descriptor, nil
}

// applyDefaults fills in the tri-state defaults a resolved
// StepDescriptor is assigned (currently just
// allowUnprotectedPresentation).
func applyDefaults(d *wmodel.StepDescriptor) *wmodel.StepDescriptor {
	if d.AllowUnprotectedPresentation == nil {
		f := false
		d.AllowUnprotectedPresentation = &f
	}
	return d
}
