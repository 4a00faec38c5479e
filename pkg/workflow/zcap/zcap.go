// Package zcap models delegated authorization capabilities (zcaps) and
// invokes them against external collaborator services (Issuer, Verifier,
// Challenge-Creation). The exchanger never implements the zcap
// invocation/verification protocol itself -- that framework
// is assumed to exist -- but it does need a concrete shape to store a
// workflow's delegated capabilities and a single place to invoke one.
// That shape is grounded on pkg/vcclient's typed-HTTP-client pattern,
// signing each invocation the way pkg/jose signs a JWT.
package zcap

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sunet/vc-exchanger/pkg/jose"
	"github.com/sunet/vc-exchanger/pkg/logger"
)

// Well-known reference ids recognized by the workflow config registry.
const (
	RefIssue               = "issue"
	RefCredentialStatus     = "credentialStatus"
	RefCreateChallenge      = "createChallenge"
	RefVerifyPresentation   = "verifyPresentation"
	RefSignAuthorizationReq = "signAuthorizationRequest"
)

// Capability is a delegated authorization capability: a cryptographically
// verifiable permission to invoke POST `InvocationTarget` on behalf of
// `Controller`. The exchanger stores these opaquely per workflow and
// invokes them through InvokeZcap; it never inspects the delegation
// chain itself (the zcap framework's job).
type Capability struct {
	ID               string `json:"id" bson:"id"`
	Controller       string `json:"controller" bson:"controller"`
	InvocationTarget string `json:"invocationTarget" bson:"invocationTarget" validate:"required,url"`
	ParentCapability string `json:"parentCapability,omitempty" bson:"parentCapability,omitempty"`
	// InvocationSigningKeyPath is a PEM EC private key used to sign the
	// invocation proof; in production this would be the controller's
	// held key, resolved by the assumed zcap library.
	InvocationSigningKeyPath string `json:"-" bson:"invocationSigningKeyPath,omitempty"`
}

// Invoker invokes delegated capabilities against external collaborator
// services. A single Invoker is shared by the Verifier Client and the
// Issuer Client.
type Invoker struct {
	httpClient *http.Client
	log        *logger.Log
}

func NewInvoker(timeout time.Duration, log *logger.Log) *Invoker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Invoker{
		httpClient: &http.Client{Timeout: timeout},
		log:        log.New("zcap"),
	}
}

// InvokeZcap invokes the capability's InvocationTarget with a signed
// capability-invocation header and a JSON body, decoding the JSON
// response into out. A nil out discards the response body.
func (inv *Invoker) InvokeZcap(ctx context.Context, cap *Capability, body any, out any) error {
	if cap == nil {
		return fmt.Errorf("zcap: capability is nil")
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("zcap: encode body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cap.InvocationTarget, &buf)
	if err != nil {
		return fmt.Errorf("zcap: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if sig, err := inv.signInvocation(cap); err == nil && sig != "" {
		req.Header.Set("Capability-Invocation", sig)
	} else if err != nil {
		inv.log.Debug("zcap invocation not signed", "error", err, "capability", cap.ID)
	}

	resp, err := inv.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zcap: invoke %s: %w", cap.ID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("zcap: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("zcap: invocation of %s failed with status %d: %s", cap.ID, resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("zcap: decode response: %w", err)
	}

	return nil
}

// signInvocation produces a compact JWS capability-invocation proof over
// the target + controller, using the capability's delegated signing key
// when one is configured. Absent a key, invocations proceed unsigned
// (suitable for local/dev collaborators); a production deployment
// always configures InvocationSigningKeyPath.
func (inv *Invoker) signInvocation(cap *Capability) (string, error) {
	if cap.InvocationSigningKeyPath == "" {
		return "", nil
	}

	key, err := jose.ParseSigningKey(cap.InvocationSigningKeyPath)
	if err != nil {
		return "", err
	}

	return inv.sign(cap, key)
}

func (inv *Invoker) sign(cap *Capability, key *ecdsa.PrivateKey) (string, error) {
	claims := jwt.MapClaims{
		"capability": cap.ID,
		"controller": cap.Controller,
		"target":     cap.InvocationTarget,
		"iat":        time.Now().Unix(),
	}

	return jose.MakeJWT(jwt.MapClaims{"typ": "zcap-invocation+jwt"}, claims, jwt.SigningMethodES256, key)
}
