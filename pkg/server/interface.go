/*
Package server implements msgpack IPC for the recipe suggestion
service.

The server speaks binary msgpack over stdin/stdout so a front-end
process (the site's node server, an editor, a test harness) can ask for
suggestions without an HTTP hop. Messages are processed synchronously
with timing info included in responses.

A suggestion request:

	{"id": "req_001", "cmd": "suggest", "q": "alma", "l": 5}

is answered with ranked items:

	{"id": "req_001", "s": [{"id": "12", "title": "Almás pite", "slug": "almas-pite", "r": 1}], "c": 1, "t": 210}

The "views" and "rate" commands proxy the collection's view counter and
rating updates by slug; "health" answers with a status frame. Malformed
input is answered with an error frame, never a dropped connection.
*/
package server

// Request is an incoming IPC frame. Command defaults to "suggest"
// when a query is present.
type Request struct {
	ID      string `msgpack:"id"`
	Command string `msgpack:"cmd,omitempty"`
	Query   string `msgpack:"q,omitempty"`
	Limit   int    `msgpack:"l,omitempty"`
	Slug    string `msgpack:"slug,omitempty"`
	Rating  int    `msgpack:"rating,omitempty"`
}

// ResponseItem is one ranked suggestion in a response frame.
type ResponseItem struct {
	ID    string `msgpack:"id"`
	Title string `msgpack:"title"`
	Slug  string `msgpack:"slug,omitempty"`
	Rank  uint16 `msgpack:"r"`
}

// SuggestResponse answers a suggestion request.
type SuggestResponse struct {
	ID          string         `msgpack:"id"`
	Suggestions []ResponseItem `msgpack:"s"`
	Count       int            `msgpack:"c"`
	TimeTaken   int64          `msgpack:"t"`
}

// CounterResponse answers a views or rate request.
type CounterResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Views  int    `msgpack:"views,omitempty"`
}

// StatusResponse answers health checks and the ready handshake.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id,omitempty"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"code"`
}
