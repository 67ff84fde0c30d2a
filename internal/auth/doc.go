// Package auth provides authentication for the TaskOrbit web layer:
// bcrypt password handling, a user service over the users repository,
// cookie sessions backed by scs, and the Gin middleware that guards
// non-public routes.
//
// The persistence core knows nothing about authentication; this package
// consumes it through the users repository only.
package auth
