// Package engine implements the Exchange Engine: the state
// machine every protocol adapter drives an exchange through via the
// uniform transition contract. Adapters never mutate an exchange
// directly -- they call Engine.Transition with a pure "intent" callback
// that inspects the resolved step and returns the response plus the
// step result to commit, and the Engine performs load, authorization
// bookkeeping, commit-with-retry and state advancement uniformly.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sunet/vc-exchanger/internal/exchanger/db"
	"github.com/sunet/vc-exchanger/pkg/logger"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/resolver"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// maxCommitAttempts bounds the load+compute+commit retry loop on an
// optimistic-concurrency conflict.
const maxCommitAttempts = 5

// Engine drives exchanges through their state machine.
type Engine struct {
	store    *db.Service
	resolver *resolver.Resolver
	log      *logger.Log
}

func New(store *db.Service, resolver *resolver.Resolver, log *logger.Log) *Engine {
	return &Engine{store: store, resolver: resolver, log: log.New("engine")}
}

// Intent is produced by a protocol adapter against a resolved step; the
// Engine commits it atomically. A nil StepResult means this transition
// does not advance variables.results (e.g. a GET that only reads
// state); Advance controls whether to move to the step's nextStep.
type Intent struct {
	Response   any
	StepResult map[string]any
	Advance    bool
	// Complete forces state=complete regardless of the resolved step's
	// nextStep (used by the invite-request adapter).
	Complete bool
}

// IntentFunc is supplied by a protocol adapter: given the loaded
// exchange, its workflow config and the resolved step descriptor, it
// validates the inbound payload, performs verification/issuance as
// needed, and returns the Intent to commit.
type IntentFunc func(ctx context.Context, cfg *wmodel.WorkflowConfig, exchange *wmodel.Exchange, step *wmodel.StepDescriptor) (*Intent, error)

// Transition runs the uniform transition contract: load, resolve,
// invoke the adapter's intent callback, commit with retry, and advance
// state. The protocol-specific validation/verification/issuance work
// happens inside fn. requestInput is passed through to the Step
// Resolver for dynamic steps.
func (e *Engine) Transition(ctx context.Context, workflowID, exchangeID string, requestInput map[string]any, fn IntentFunc) (*Intent, error) {
	cfg, err := e.store.WorkflowConfigColl.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		exchange, err := e.store.ExchangeColl.Load(ctx, workflowID, exchangeID, time.Now())
		if err != nil {
			return nil, err
		}

		if exchange.State == wmodel.StateComplete {
			e.store.ExchangeColl.UpdateLastError(ctx, workflowID, exchangeID, &wmodel.ErrorRecord{
				Name:    string(werrors.KindDuplicate),
				Message: "exchange already complete",
			})
			return nil, werrors.New(werrors.KindDuplicate, "exchange already complete")
		}

		step, err := e.resolver.Resolve(ctx, cfg, exchange, exchange.Step, requestInput)
		if err != nil {
			e.recordLastError(ctx, workflowID, exchangeID, err)
			return nil, err
		}

		intent, err := fn(ctx, cfg, exchange, step)
		if err != nil {
			e.recordLastError(ctx, workflowID, exchangeID, err)
			return nil, err
		}

		expectedSequence := exchange.Sequence

		if intent.StepResult != nil {
			if exchange.HasResultForStep(exchange.Step) {
				return nil, werrors.Newf(werrors.KindInvalidState, "step %q result already recorded", exchange.Step)
			}
			exchange.SetResultForStep(exchange.Step, intent.StepResult)
		}

		e.advance(exchange, step, intent)

		if err := e.store.ExchangeColl.Update(ctx, exchange, expectedSequence); err != nil {
			if werrors.As(err) != nil && werrors.As(err).Name == werrors.KindInvalidState {
				e.log.Debug("commit conflict, retrying", "attempt", attempt, "exchangeId", exchangeID)
				continue
			}
			return nil, err
		}

		return intent, nil
	}

	return nil, werrors.New(werrors.KindInvalidState, "exceeded commit retry attempts")
}

func (e *Engine) advance(exchange *wmodel.Exchange, step *wmodel.StepDescriptor, intent *Intent) {
	if !intent.Advance {
		return
	}
	if intent.Complete || step.IsTerminal() {
		exchange.State = wmodel.StateComplete
		return
	}
	exchange.Step = step.NextStep
	if exchange.State == wmodel.StatePending {
		exchange.State = wmodel.StateActive
	}
}

func (e *Engine) recordLastError(ctx context.Context, workflowID, exchangeID string, err error) {
	werr := werrors.As(err)
	if werr == nil {
		werr = werrors.Wrap(werrors.KindData, "unexpected error", err)
	}
	e.store.ExchangeColl.UpdateLastError(ctx, workflowID, exchangeID, &wmodel.ErrorRecord{
		Name:    string(werr.Name),
		Message: werr.Message,
		Details: werr.Details,
	})
}

// CreateExchange materializes a new Exchange for workflow cfg: ttl (if
// non-zero) takes precedence over an explicit expires, bounded by
// model.Exchanger.MaxExchangeTTL; the exchange starts on the workflow's
// initialStep in state "pending".
func (e *Engine) CreateExchange(ctx context.Context, cfg *wmodel.WorkflowConfig, ttl time.Duration, expires time.Time, defaultTTL, maxTTL time.Duration, variables map[string]any, openID *wmodel.ExchangeOpenID) (*wmodel.Exchange, error) {
	now := time.Now()

	switch {
	case ttl > 0:
		if ttl > maxTTL {
			ttl = maxTTL
		}
		expires = now.Add(ttl)
	case !expires.IsZero():
		if expires.Sub(now) > maxTTL {
			expires = now.Add(maxTTL)
		}
	default:
		expires = now.Add(defaultTTL)
	}

	exchange := &wmodel.Exchange{
		ID:         uuid.NewString(),
		WorkflowID: cfg.ID,
		State:      wmodel.StatePending,
		Expires:    expires,
		Step:       cfg.InitialStep,
		Variables:  variables,
		OpenID:     openID,
	}

	if err := e.store.ExchangeColl.Create(ctx, exchange); err != nil {
		return nil, err
	}

	return exchange, nil
}

// LoadForRead returns an exchange for a read-only operation (e.g. GET
// {exchangeId}), applying the same expiry check Transition does but
// without taking a commit lock.
func (e *Engine) LoadForRead(ctx context.Context, workflowID, exchangeID string) (*wmodel.Exchange, error) {
	return e.store.ExchangeColl.Load(ctx, workflowID, exchangeID, time.Now())
}

// ResolveCurrentStep loads an exchange's workflow config and resolves
// its current step for a read-only caller (e.g. the protocols
// endpoint) that needs to inspect step shape without driving a
// transition. requestInput is nil, so a dynamic step sees no
// request.* variable.
func (e *Engine) ResolveCurrentStep(ctx context.Context, workflowID, exchangeID string) (*wmodel.WorkflowConfig, *wmodel.Exchange, *wmodel.StepDescriptor, error) {
	cfg, err := e.store.WorkflowConfigColl.Get(ctx, workflowID)
	if err != nil {
		return nil, nil, nil, err
	}

	exchange, err := e.store.ExchangeColl.Load(ctx, workflowID, exchangeID, time.Now())
	if err != nil {
		return nil, nil, nil, err
	}

	step, err := e.resolver.Resolve(ctx, cfg, exchange, exchange.Step, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, exchange, step, nil
}

// WorkflowConfig returns a workflow config by id, for adapters that need
// it outside of a Transition (e.g. metadata endpoints).
func (e *Engine) WorkflowConfig(ctx context.Context, workflowID string) (*wmodel.WorkflowConfig, error) {
	return e.store.WorkflowConfigColl.Get(ctx, workflowID)
}
