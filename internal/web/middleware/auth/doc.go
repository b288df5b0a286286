// Package auth provides the bearer token middleware guarding the admin api.
//
// The middleware reads the Authorization header, verifies the token with the
// configured TokenIssuer and stores the verified claims in fiber.Locals.
// Requests without a valid admin token end with 401 before any handler runs.
//
// Usage:
//
//	admin := authmiddleware.New(tokens)
//	router.Get("/orders", admin, listOrders)
//
// Handlers read the caller with Subject(c).
package auth
