// Package cmd implements the dcoll command-line interface.
//
// The package is organized into several subpackages:
//
//   - db: Operations on an ordered key-value database persisted in a snapshot file
//   - bench: Throughput benchmarks of all collections
//   - treemap: Experiments on the treap behind the ordered map (height, churn)
//   - util: Shared utilities for configuration and logging (internal use)
//
// Every flag can also be set through an environment variable with the prefix DCOLL_
// (e.g. DCOLL_LOG_LEVEL=debug). .env and .env.local files in the working directory
// are loaded on startup.
//
// See dcoll -help for a list of all commands.
package cmd
