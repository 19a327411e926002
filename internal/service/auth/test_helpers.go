package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable clock for
// deterministic tests. Not for production use; NewJWTService enforces the
// secret-length requirement that this helper skips.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	if timeFunc == nil {
		timeFunc = time.Now
	}
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      timeFunc,
		clockSkew:     0,
	}
}
