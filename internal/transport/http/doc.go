// Package http implements the HTTP handlers of the PriceScope service. It is
// a thin layer between the chi router and the report service: handlers
// decode and validate requests, call the service, and format responses.
//
// # Routes
//
//	POST /api/reports/summary   JSON summary, statistics, preview and facets
//	POST /api/reports/csv       predictions.csv download
//	POST /api/reports/pdf       prediction_report.pdf download
//	POST /api/reports/xlsx      predictions.xlsx download
//	GET  /api/health            liveness and version
//	GET  /api/health/ready      record source readiness
//
// # Error Handling
//
// All errors are rendered as RFC 7807 problem details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/reports/summary",
//	    "trace_id": "..."
//	}
//
// An artifact that could not be produced fails only its own download. The
// summary endpoint still answers and lists the degradation in warnings.
package http
