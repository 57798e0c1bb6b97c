package domain

// TokenClaims is the claim set of a route pass token. The token is a
// three-part structure (header, claims, signature) whose signature covers the
// canonical encoding of the claims, so claim insertion order never changes
// the signature bytes.
type TokenClaims struct {
	// Iss is the issuer identity pinned by lock firmware.
	Iss string `json:"iss"`
	// Sub is the user the pass authorizes.
	Sub string `json:"sub"`
	// Aud is the ordered set of lock device IDs the pass authorizes.
	Aud []string `json:"aud"`
	// Exp is the absolute expiry in unix seconds.
	Exp int64 `json:"exp"`
	// Iat is the issuance time in unix seconds.
	Iat int64 `json:"iat"`
	// Jti is the unique token ID, recorded in the issuance audit log.
	Jti string `json:"jti"`
	// DevicePublicKey binds the pass to the requesting device's public key
	// (base64). Locks challenge the device to prove possession.
	DevicePublicKey string `json:"dpk"`
}
