// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

// Package tokens tracks token usage and API cost for model-backed
// extraction runs. A Counter accumulates per-request usage into a
// session, prices it against the model's published per-million-token
// rates, and can persist session history to disk for cross-run cost
// reporting.
package tokens
