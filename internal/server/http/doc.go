// Package http exposes the gateway's REST surface. It hosts the gin engine,
// registers the auth, user, role and group routes, and translates operation
// outcomes into the uniform response envelope.
package http
