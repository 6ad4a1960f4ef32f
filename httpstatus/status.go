// Package httpstatus is the status-code table the Responder consults to
// format status lines and the default error page: a numeric code's reason
// phrase, its "NNN reason" form, and a short descriptive paragraph.
//
// Code is a typed integer with a parallel lookup table, the same shape
// dispatch-go's Status type uses for its own much smaller status enum —
// but dispatch-go's codes are small and dense enough for a value-indexed
// array, while HTTP status codes span 100-599 sparsely, so the table here
// is a map keyed by Code instead.
package httpstatus

import "fmt"

// Code is an HTTP status code.
type Code int

// The subset of RFC 7231 (and common extension) status codes the default
// error page and the rest of this module are grounded on.
const (
	Continue           Code = 100
	SwitchingProtocols Code = 101

	OK                   Code = 200
	Created              Code = 201
	Accepted             Code = 202
	NoContent            Code = 204
	PartialContent       Code = 206

	MovedPermanently Code = 301
	Found            Code = 302
	NotModified      Code = 304
	TemporaryRedirect Code = 307

	BadRequest                 Code = 400
	Unauthorized               Code = 401
	Forbidden                  Code = 403
	NotFound                   Code = 404
	MethodNotAllowed           Code = 405
	RequestTimeout             Code = 408
	Conflict                   Code = 409
	Gone                       Code = 410
	LengthRequired             Code = 411
	PayloadTooLarge            Code = 413
	URITooLong                 Code = 414
	UnsupportedMediaType       Code = 415
	RangeNotSatisfiable        Code = 416
	ExpectationFailed          Code = 417
	TooManyRequests            Code = 429

	InternalServerError     Code = 500
	NotImplemented          Code = 501
	BadGateway              Code = 502
	ServiceUnavailable      Code = 503
	GatewayTimeout          Code = 504
	HTTPVersionNotSupported Code = 505
)

type entry struct {
	reason      string
	description string
}

var table = map[Code]entry{
	Continue:           {"Continue", "Client should continue with its request."},
	SwitchingProtocols: {"Switching Protocols", "Server is switching protocols according to Upgrade header."},

	OK:             {"OK", "Success."},
	Created:        {"Created", "The request has been fulfilled and resulted in a new resource being created."},
	Accepted:       {"Accepted", "The request has been accepted for processing, but the processing has not been completed."},
	NoContent:      {"No Content", "The server successfully processed the request, but is not returning any content."},
	PartialContent: {"Partial Content", "The server is delivering only part of the resource due to a range header sent by the client."},

	MovedPermanently:  {"Moved Permanently", "The requested resource has been assigned a new permanent URI."},
	Found:             {"Found", "The requested resource resides temporarily under a different URI."},
	NotModified:       {"Not Modified", "The resource has not been modified since last requested."},
	TemporaryRedirect: {"Temporary Redirect", "The requested resource resides temporarily under a different URI."},

	BadRequest:           {"Bad Request", "The server cannot or will not process the request due to something that is perceived to be a client error."},
	Unauthorized:         {"Unauthorized", "Authentication is required and has failed or has not yet been provided."},
	Forbidden:            {"Forbidden", "The request was valid, but the server is refusing action."},
	NotFound:             {"Not Found", "The requested resource could not be found but may be available in the future."},
	MethodNotAllowed:     {"Method Not Allowed", "A request method is not supported for the requested resource."},
	RequestTimeout:       {"Request Timeout", "The server timed out waiting for the request."},
	Conflict:             {"Conflict", "The request could not be processed because of conflict in the current state of the resource."},
	Gone:                 {"Gone", "The resource requested is no longer available and will not be available again."},
	LengthRequired:       {"Length Required", "The request did not specify the length of its content, which is required by the requested resource."},
	PayloadTooLarge:      {"Payload Too Large", "The request is larger than the server is willing or able to process."},
	URITooLong:           {"URI Too Long", "The URI provided was too long for the server to process."},
	UnsupportedMediaType: {"Unsupported Media Type", "The request entity has a media type which the server or resource does not support."},
	RangeNotSatisfiable:  {"Range Not Satisfiable", "The client has asked for a portion of the resource, but the server cannot supply that portion."},
	ExpectationFailed:    {"Expectation Failed", "The server cannot meet the requirements of the Expect request-header field."},
	TooManyRequests:      {"Too Many Requests", "The client has sent too many requests in a given amount of time."},

	InternalServerError:     {"Internal Server Error", "An internal server error occurred while processing this request."},
	NotImplemented:          {"Not Implemented", "The server either does not recognize the request method, or it lacks the ability to fulfil it."},
	BadGateway:              {"Bad Gateway", "The server was acting as a gateway or proxy and received an invalid response from the upstream server."},
	ServiceUnavailable:      {"Service Unavailable", "The server is currently unavailable (overloaded or down for maintenance)."},
	GatewayTimeout:          {"Gateway Timeout", "The server was acting as a gateway or proxy and did not receive a timely response from the upstream server."},
	HTTPVersionNotSupported: {"HTTP Version Not Supported", "The server does not support the HTTP protocol version used in the request."},
}

// AsString returns a status code's reason phrase, e.g. "Not Found".
func AsString(code Code) string {
	if e, ok := table[code]; ok {
		return e.reason
	}
	return "Unknown"
}

// AsStringWithCode returns a status code's wire form, e.g. "404 Not Found".
func AsStringWithCode(code Code) string {
	return fmt.Sprintf("%d %s", int(code), AsString(code))
}

// AsDescriptiveString returns a short paragraph describing the status,
// suitable for the default error page's long_message slot.
func AsDescriptiveString(code Code) string {
	if e, ok := table[code]; ok {
		return e.description
	}
	return "An unknown error occurred."
}
