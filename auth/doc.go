// Package auth protects health endpoints that expose check details.
//
// Two authenticators are provided: JWTAuthenticator validates HMAC-signed
// bearer tokens and APIKeyAuthenticator looks up hashed keys in an
// APIKeyStore. Middleware tries them in order and rejects requests that none
// of them accepts.
package auth
