// Package fakes provides in-process stand-ins for the external services
// courier talks to, for use in tests.
package fakes
