// Package apikey provides credential authentication middleware for the API.
//
// The middleware verifies the X-Api-Key request header against the
// credential authority and adds the resolved credential to the request
// context for use in handlers.
//
// The middleware performs the following tasks:
//   - Resolves the raw secret to an active credential, rejecting revoked
//     and expired keys with 401
//   - Adds the credential and its granted permission set to fiber.Locals
//   - Lets unauthenticated requests pass through so public routes keep
//     working; protected routes enforce access with RequirePermission
//
// Usage:
//
//	app.Use(apikey.Middleware(authority))
//	app.Get("/api/v1/roles", apikey.RequirePermission("role:read"), list)
package apikey
