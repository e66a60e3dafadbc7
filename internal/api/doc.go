// Package api serves calendar queries over HTTP.
//
// Routes:
//
//	GET /health
//	GET /api/v1/calendars
//	GET /api/v1/calendars/{name}
//	GET /api/v1/calendars/{name}/days/{date}
//	GET /api/v1/calendars/{name}/days/{date}/next
//	GET /api/v1/calendars/{name}/days/{date}/prev
//	GET /api/v1/calendars/{name}/holidays?from=YYYY-MM-DD&to=YYYY-MM-DD
//	GET /metrics
//
// Responses use the {"status","data","error"} envelope of the CLI's JSON
// output. Calendar responses carry an ETag derived from the rule hash.
package api
