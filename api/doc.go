// Package api provides the request and response types for the WebExtract HTTP API.
//
// # API Overview
//
// WebExtract provides a RESTful API for:
//   - Agent-driven structured extraction (POST /extract)
//   - Run performance reports and summaries (/api/v1/report, /api/v1/summary)
//   - Economic context snapshots (/api/v1/economic)
//   - Live extraction progress over WebSocket (/ws/progress)
//   - Health monitoring and metrics
//
// # Authentication
//
// When an API key is configured, endpoints outside the skip list require
// the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
