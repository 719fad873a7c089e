// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

// Package agent drives an external browser-automation agent to perform
// structured extraction tasks against target websites.
//
// The BrowserAgent interface is the substitution point: the production
// implementation talks HTTP to a browser-use style automation service,
// tests plug in fakes. The Orchestrator runs one task per site with
// independent sessions, isolates per-site failures, records every query
// with the performance tracker, and emits progress events for live
// observers.
package agent
