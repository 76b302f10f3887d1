package auth

import "time"

type Config struct {
	// HS256 signing key. Authentication is disabled when empty.
	SecretKey []byte
	Issuer    string
	TokenTTL  time.Duration
}
