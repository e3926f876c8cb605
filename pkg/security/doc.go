/*
Package security groups courier's request security.

The auth subpackage guards the administrative routes (generation trigger,
record deletion and manual cleanup) with a shared secret carried in a
request header:

	validator := auth.NewSecretValidator(cfg.Security.AdminSecret)
	guard := auth.NewMiddleware(validator, handlers.Unauthorized,
		auth.HeaderSource(cfg.Security.AdminHeader))

	mux.Handle("POST /cleanup/run", guard.Handle(cleanup))

TLS is expected to terminate in front of the service.
*/
package security
