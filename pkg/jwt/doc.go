// Package jwt issues and verifies HS256 bearer tokens that carry a user ID
// and a role, and provides HTTP middleware that puts verified claims into
// the request context.
//
//	svc, err := jwt.New([]byte(cfg.Secret), jwt.WithIssuer(cfg.Issuer))
//	r.Use(jwt.Middleware(svc))
//
//	claims, ok := jwt.GetClaims(r.Context())
package jwt
