// Package http provides HTTP handlers and middleware for the campus
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced
//     via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /sessions/refresh: rotates the current session token and extends
//     its expiry. DELETE /sessions/current revokes it and clears the cookie.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id},
//     PUT /users/{id}/roles: account management endpoints exchanging the
//     `userDTO` payload defined in user_handler.go.
//   - GET /venues, POST /venues, GET/PUT/DELETE /venues/{id}: venue catalog
//     endpoints exchanging the `venueDTO` payload defined in venue_handler.go.
//   - GET /terms, POST /terms, GET/PUT/DELETE /terms/{id}: academic term
//     endpoints exchanging the `termDTO` payload defined in term_handler.go.
//   - POST /meetings: expands a recurrence rule into a meeting series and
//     persists the batch, returning 201 with the created occurrences or 409
//     with a structured conflict report. POST /meetings/preview runs the same
//     expansion without persisting anything.
//   - GET /meetings: filtered listing with advisory conflict warnings.
//     GET /meetings/{id}, DELETE /meetings/{id} and
//     DELETE /meetings/batches/{batchID} complete the lifecycle.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
