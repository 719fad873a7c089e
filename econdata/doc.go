// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

// Package econdata annotates extraction runs with macroeconomic context.
// It pulls current indicator values (unemployment, CPI, policy rate,
// consumer sentiment) from the FRED observations API, caches snapshots,
// and degrades to well-known fallback values when the API is
// unreachable. A fetch failure is never an error for the caller: the
// returned snapshot is simply marked stale.
package econdata
