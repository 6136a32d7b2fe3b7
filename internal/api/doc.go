// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts HTTP to the services in internal/service:
// handlers read the caller identity placed in the context by the auth
// middleware, call one service operation and map its error kind to a status
// code.
package api
