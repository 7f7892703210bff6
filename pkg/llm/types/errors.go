package types

import "errors"

var (
	// ErrUnknownProvider is returned when a config names a provider the router does not know
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingAPIKey is returned when a BYOK provider is selected without a credential
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrEmptyResponse is returned when the provider returns an empty response
	ErrEmptyResponse = errors.New("empty response from provider")
)
