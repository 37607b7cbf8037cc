// Package cachetest provides reusable store contract tests for querycache
// Store implementations.
//
// Example pattern:
//
//	func TestSQLStoreContract(t *testing.T) {
//		store := querycache.NewSQLStore(ctx, "sqlite", "file::memory:?cache=shared")
//		cachetest.RunStoreContract(t, store, cachetest.Options{CaseName: t.Name()})
//	}
//
// Example factory/cleanup wrapper:
//
//	func runContractWithFactory(t *testing.T, mk func(t *testing.T) (querycache.Store, func())) {
//		t.Helper()
//		store, cleanup := mk(t)
//		t.Cleanup(cleanup)
//		cachetest.RunStoreContract(t, store, cachetest.Options{CaseName: t.Name()})
//	}
package cachetest
