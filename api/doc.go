// Package api documents the aimlflow HTTP API served by `aimlflow serve`.
//
// # Endpoints
//
//	GET  /health, /healthz          liveness
//	GET  /ready, /readyz            readiness (redis, upstream circuit)
//	GET  /version                   build information
//	GET  /api/v1/operations         operations and their extract modes
//	POST /api/v1/operations/{op}    run a batch of items through one operation
//	GET  /api/v1/models?operation=  models usable with an operation
//
// Metrics are exposed on a separate port at /metrics.
//
// # Authentication
//
// When server.api_keys is configured every /api/ route requires the
// X-API-Key header. When server.jwt is configured a Bearer token is accepted
// instead:
//
//	X-API-Key: your-api-key
//	Authorization: Bearer <jwt>
//
// # Executing an operation
//
//	POST /api/v1/operations/imageGeneration
//	{
//	  "model": "flux/schnell",
//	  "items": [
//	    {"params": {"prompt": "a lighthouse at dusk", "extract": "firstUrl"}}
//	  ]
//	}
//
// The response holds one row per item, in request order. Binaries for speech
// transcription are sent inline as base64 under items[].binaries.
package api
