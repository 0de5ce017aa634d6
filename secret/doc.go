// Package secret resolves credentials referenced from healthd configuration.
//
// A value is first expanded against the environment (see ExpandEnvStrict),
// then any secret reference in it is replaced by its provider's answer:
//   - Full value:  secretref:env:PG_DSN
//   - Inline use:  postgres://monitor:secretref:file:/run/secrets/pg@db:5432/app
//
// The built-in providers are EnvProvider ("env") and FileProvider ("file").
package secret
