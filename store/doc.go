// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

// Package store persists extraction output and query records with GORM.
// It supports postgres, mysql, and a pure-Go sqlite driver, normalizes
// the loosely-typed rows the browser agent returns (currency strings,
// "N/A" markers) into typed columns, and skips rows that carry no
// usable identity instead of failing the batch.
package store
