// Package template implements the Template Evaluator: a JSONata
// expression evaluator with a fixed {globals, variables} environment,
// used to materialize credential templates and stepTemplates. It
// wraps github.com/blues/jsonata-go the way pkg/apiv1.Client wraps a
// ttlcache.Cache around an expensive-to-recompute value.
package template

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blues/jsonata-go"
	"github.com/jellydator/ttlcache/v3"

	"github.com/sunet/vc-exchanger/pkg/logger"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
)

// forbiddenKeyChars are characters the storage layer cannot persist in
// a map key; an evaluated credential object containing one is rejected
// before persistence.
const forbiddenKeyChars = ".$%"

// Evaluator evaluates JSONata expressions against a fixed environment.
// It is safe for concurrent use.
type Evaluator struct {
	timeout     time.Duration
	compileCache *ttlcache.Cache[string, *jsonata.Expr]
	log         *logger.Log
}

// New creates an Evaluator. timeout bounds a single evaluation; zero
// defaults to 200ms, matching model.Exchanger.JSONataEvalTimeout's
// default.
func New(timeout time.Duration, log *logger.Log) *Evaluator {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}

	cache := ttlcache.New[string, *jsonata.Expr](
		ttlcache.WithTTL[string, *jsonata.Expr](30 * time.Minute),
	)
	go cache.Start()

	return &Evaluator{
		timeout:      timeout,
		compileCache: cache,
		log:          log.New("template"),
	}
}

// Env is the fixed variable environment passed to every evaluation:
// globals describes the immutable workflow/exchange context, variables
// is the exchange's variables map merged with any per-invocation
// overrides.
type Env struct {
	Globals   Globals        `json:"globals"`
	Variables map[string]any `json:"variables"`
}

// Globals is the read-only {workflow, exchange} context.
type Globals struct {
	Workflow GlobalsWorkflow `json:"workflow"`
	Exchange GlobalsExchange `json:"exchange"`
}

type GlobalsWorkflow struct {
	ID         string `json:"id"`
	Controller string `json:"controller"`
}

type GlobalsExchange struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	Expires string `json:"expires"`
}

func (e *Evaluator) compile(expression string) (*jsonata.Expr, error) {
	if item := e.compileCache.Get(expression); item != nil {
		return item.Value(), nil
	}

	expr, err := jsonata.Compile(expression)
	if err != nil {
		return nil, werrors.Wrap(werrors.KindValidation, "invalid jsonata expression", err)
	}

	e.compileCache.Set(expression, expr, ttlcache.DefaultTTL)
	return expr, nil
}

// Evaluate runs expression against env and unmarshals the JSONata
// result into out (typically a *map[string]any or a pointer to a
// concrete struct). Evaluation is deterministic for a fixed
// (expression, env) pair and is bounded by the Evaluator's timeout.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, env *Env, out any) error {
	expr, err := e.compile(expression)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := expr.Eval(env)
		done <- result{val: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return werrors.New(werrors.KindData, "jsonata evaluation timed out")
	case r := <-done:
		if r.err != nil {
			return werrors.Wrap(werrors.KindData, "jsonata evaluation failed", r.err)
		}
		return repack(r.val, out)
	}
}

// repack round-trips through encoding/json so callers can evaluate into
// any Go type, the way jsonata-go's Eval return value (an any built out
// of map[string]any/[]any/primitives) is normally consumed.
func repack(val any, out any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(val)
	if err != nil {
		return werrors.Wrap(werrors.KindData, "jsonata result not serializable", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return werrors.Wrap(werrors.KindData, "jsonata result did not match expected shape", err)
	}
	return nil
}

// EvaluateCredential evaluates a credentialTemplate expression and
// validates the result has no storage-forbidden characters in any map
// key, recursively.
func (e *Evaluator) EvaluateCredential(ctx context.Context, expression string, env *Env) (map[string]any, error) {
	var vc map[string]any
	if err := e.Evaluate(ctx, expression, env, &vc); err != nil {
		return nil, err
	}
	if vc == nil {
		return nil, werrors.New(werrors.KindValidation, "credential template evaluated to null")
	}
	if err := checkKeys(vc); err != nil {
		return nil, err
	}
	return vc, nil
}

func checkKeys(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			for _, c := range forbiddenKeyChars {
				if containsRune(k, c) {
					return werrors.Newf(werrors.KindValidation, "credential key %q contains forbidden character %q", k, string(c))
				}
			}
			if err := checkKeys(sub); err != nil {
				return err
			}
		}
	case []any:
		for _, sub := range t {
			if err := checkKeys(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// Close stops the background cache-eviction goroutine.
func (e *Evaluator) Close() {
	e.compileCache.Stop()
}
