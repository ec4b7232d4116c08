// Package mocks provides generated mocks for auth port interfaces.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks.
// The hand-written doubles in internal/mocks/auth cover most tests; the
// generated ProfileStore mock is used where per-call expectations matter.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for ProfileStore interface from internal/ports.
// This creates MockProfileStore with Get and Create expectation helpers.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_store_mock.go github.com/vrnd369/theubc-admin-api/internal/ports ProfileStore
