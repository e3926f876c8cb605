// Package auth guards administrative endpoints with a shared secret.
//
// The secret travels in a request header (X-Admin-Secret by default) and is
// compared in constant time against every configured secret, so a rotation
// can accept the old and new value for a while. Rejected requests get one
// generic message whether the header was missing or wrong.
//
//	validator := auth.NewSecretValidator(cfg.Security.AdminSecret)
//	guard := auth.NewMiddleware(validator, deny, auth.HeaderSource(cfg.Security.AdminHeader))
//	mux.Handle("POST /cleanup/run", guard.Handle(cleanupHandler))
package auth
