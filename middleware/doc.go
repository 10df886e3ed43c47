// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Middleware

  - WithLogging: request/completion logging via slog
  - CORS: cross-origin headers plus preflight handling

# JSON Helpers

  - JSONResponse: encode a value with status code
  - ErrorResponse: generic error body
  - RejectResponse: structured vote-admission rejection carrying the
    reason code and gate detail (window boundaries, position name)
  - ParseJSONBody: decode a request body

# Client IP

GetClientIP resolves the caller address through X-Forwarded-For and
X-Real-IP before falling back to RemoteAddr. The result is only ever
stored as a salted hash (see auth.HashIP).
*/
package middleware
