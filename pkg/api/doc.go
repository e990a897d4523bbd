// Package api defines the request and response messages of the billing RPC
// services and the JSON codec that carries them.
//
// Amounts are decimal strings with two fraction digits ("200.50"). Dates are
// civil dates formatted as YYYY-MM-DD; timestamps are RFC 3339.
package api
