package openid4vci

// Jwk is the subset of RFC 7517 a holder-bound proof's key material needs:
// either a full public key (kty/crv/x/y and friends) extracted from a proof
// JWT's "jwk" header, or a bare Kid reference for out-of-band resolution.
type Jwk struct {
	Kty    string   `json:"kty,omitempty"`
	Crv    string   `json:"crv,omitempty"`
	X      string   `json:"x,omitempty"`
	Y      string   `json:"y,omitempty"`
	N      string   `json:"n,omitempty"`
	E      string   `json:"e,omitempty"`
	Kid    string   `json:"kid,omitempty"`
	Use    string   `json:"use,omitempty"`
	Alg    string   `json:"alg,omitempty"`
	KeyOps []string `json:"key_ops,omitempty"`
	Ext    bool     `json:"ext,omitempty"`
}
