package api

// Route templates. These are also the route label of the request metric.
const (
	RouteHealth    = "/health"
	RouteMetrics   = "/metrics"
	RouteCalendars = "/api/v1/calendars"
	RouteCalendar  = "/api/v1/calendars/{name}"
	RouteDay       = "/api/v1/calendars/{name}/days/{date}"
	RouteNext      = "/api/v1/calendars/{name}/days/{date}/next"
	RoutePrev      = "/api/v1/calendars/{name}/days/{date}/prev"
	RouteHolidays  = "/api/v1/calendars/{name}/holidays"
)
