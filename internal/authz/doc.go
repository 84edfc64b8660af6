// Package authz implements the role/permission authorization engine: the
// permission registry (the data-driven catalog of default permission sets
// per user type and nominal catalogs per role), the authorization service
// that computes and validates effective permission sets, and the pure
// membership checks consumed by the request-handling layer.
package authz
