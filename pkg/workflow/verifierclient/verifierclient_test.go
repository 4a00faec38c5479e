package verifierclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sunet/vc-exchanger/pkg/logger"
	wmodel "github.com/sunet/vc-exchanger/pkg/workflow/model"
	"github.com/sunet/vc-exchanger/pkg/workflow/werrors"
	"github.com/sunet/vc-exchanger/pkg/workflow/zcap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoker() *zcap.Invoker {
	return zcap.NewInvoker(5*time.Second, logger.NewSimple("verifierclient_test"))
}

func TestCreateChallengeMissingZcap(t *testing.T) {
	c := New(newTestInvoker())
	cfg := &wmodel.WorkflowConfig{}

	_, err := c.CreateChallenge(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, werrors.KindData, werrors.As(err).Name)
}

func TestCreateChallengeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChallengeResponse{Challenge: "abc123"})
	}))
	defer srv.Close()

	cfg := &wmodel.WorkflowConfig{Zcaps: map[string]*zcap.Capability{
		zcap.RefCreateChallenge: {ID: "cc", InvocationTarget: srv.URL},
	}}

	c := New(newTestInvoker())
	challenge, err := c.CreateChallenge(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "abc123", challenge)
}

func TestVerifyPresentationRejectsUnprotected(t *testing.T) {
	c := New(newTestInvoker())
	cfg := &wmodel.WorkflowConfig{}
	step := &wmodel.StepDescriptor{}

	_, err := c.VerifyPresentation(context.Background(), cfg, step, map[string]any{}, false, nil)
	require.Error(t, err)
	assert.Equal(t, werrors.KindVerification, werrors.As(err).Name)
}

func TestVerifyPresentationSchemaRejection(t *testing.T) {
	c := New(newTestInvoker())
	cfg := &wmodel.WorkflowConfig{}
	step := &wmodel.StepDescriptor{
		PresentationSchema: &wmodel.PresentationSchema{
			Type: "JsonSchema",
			JSONSchema: map[string]any{
				"type":     "object",
				"required": []any{"holder"},
			},
		},
	}

	_, err := c.VerifyPresentation(context.Background(), cfg, step, map[string]any{}, true, nil)
	require.Error(t, err)
	assert.Equal(t, werrors.KindValidation, werrors.As(err).Name)
}

func TestVerifyPresentationSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(VerifyResult{Verified: true})
	}))
	defer srv.Close()

	cfg := &wmodel.WorkflowConfig{Zcaps: map[string]*zcap.Capability{
		zcap.RefVerifyPresentation: {ID: "vp", InvocationTarget: srv.URL},
	}}
	step := &wmodel.StepDescriptor{}

	c := New(newTestInvoker())
	result, err := c.VerifyPresentation(context.Background(), cfg, step, map[string]any{"holder": "did:example:123"}, true, nil)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestVerifyPresentationFailureCarriesCredentialResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(VerifyResult{Verified: false, CredentialResults: []any{map[string]any{"verified": false}}})
	}))
	defer srv.Close()

	cfg := &wmodel.WorkflowConfig{Zcaps: map[string]*zcap.Capability{
		zcap.RefVerifyPresentation: {ID: "vp", InvocationTarget: srv.URL},
	}}
	step := &wmodel.StepDescriptor{}

	c := New(newTestInvoker())
	_, err := c.VerifyPresentation(context.Background(), cfg, step, map[string]any{}, true, nil)
	require.Error(t, err)

	werr := werrors.As(err)
	assert.Equal(t, werrors.KindVerification, werr.Name)
	details, ok := werr.Details.(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, details["credentialResults"])
}
