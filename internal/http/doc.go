// Package http exposes the voting service over a JSON HTTP API. Handlers
// decode requests, delegate to the application services and render localized
// responses; routing is a plain net/http ServeMux.
package http
