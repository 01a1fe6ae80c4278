// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the relkit hot paths:
//   - configuration loading with CUE schema validation
//   - version pattern parsing and validation
//   - hook execution on the virtual shell
//   - an end-to-end checksum workflow
//
// To generate a profile, run:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
