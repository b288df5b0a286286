// Package auth implements the admin authentication gate.
//
// Admins prove their identity with one of the configured providers:
//   - LocalProvider: a single configured account with an Argon2id password
//     hash and an optional TOTP second factor
//   - LDAPProvider: a bind against LDAP or Active Directory, optionally
//     restricted to members of an admin group
//   - OIDCProvider: an OpenID Connect code flow, restricted to a list of
//     verified admin email addresses
//
// A successful login yields a bearer token from TokenIssuer. Tokens are HS256
// signed JWTs carrying the subject, the admin role and an absolute expiry.
// Verification is stateless: there is no session store and no revocation,
// a token stays valid until it expires or the signing secret changes.
//
// Example usage:
//
//	issuer, err := auth.NewTokenIssuer([]byte(secret), 24*time.Hour, "design-shop")
//	local, err := auth.NewLocalProvider(cfg.Auth.Local)
//	chain := auth.Chain{local}
//
//	subject, err := chain.Authenticate(ctx, auth.Credentials{Username: "admin", Password: pw})
//	token, err := issuer.Issue(subject)
//
//	claims, err := issuer.Verify(token.Value)
package auth
