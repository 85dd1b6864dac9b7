// Package cmd implements the command-line interface of kvmarket. Every invocation
// opens the configured store, runs one marketplace operation and closes the store
// again; the active session is kept in the store so consecutive commands act as the
// same account.
//
// The package is organized into several subpackages:
//
//   - account: register, login, logout, whoami, profile
//   - product: browse, show and manage listings, import listings from YAML
//   - cart: show and change the cart, checkout
//   - report: purchase history, dashboard and operation metrics
//   - bench: throughput of marketplace operations against a scratch store
//   - kv: raw access to the underlying key-value store
//   - output, util: terminal styling and shared configuration (internal use)
//
// See kvmarket --help for a list of all commands.
package cmd
