// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

// Package report renders run summaries and full performance documents.
// Everything here is pure formatting over copies of the inputs; nothing
// is mutated and nothing talks to the network.
package report
