// Package backend is the bridge between chat conversations and the
// restaurant REST API.
//
// # Requests
//
// Client.Request issues one HTTP call on behalf of a chat:
//
//  1. look up the chat's cached bearer token (absent means unauthenticated)
//  2. encode the payload as query parameters (GET) or a JSON body
//  3. send it with a bounded timeout
//  4. return the raw Response, whatever its status
//
// A connection failure (DNS, refused, timeout) is reported to the chat with
// a fixed apology through the Notifier and returned wrapped in ErrTransport.
// Nothing is retried.
//
// # Responses
//
// Response bodies are queried with gjson paths, mirroring the backend's
// {success, message, data} envelope:
//
//	resp.Get("data.token").String()
//	resp.Message()
//
// # Request Log
//
// When a store.RequestLog is configured every call is recorded with its
// status, duration and X-Request-ID. Logging failures never fail the call.
package backend
