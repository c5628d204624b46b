// Package errs defines the error shapes returned to clients.
//
// Every failure that reaches the HTTP layer is expressed as an HTTPError so
// JSON clients and the HTML error pages see the same code, status and
// message.
package errs
