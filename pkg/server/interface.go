/*
Package server implements msgpack IPC for thesaurus queries.

Clients write msgpack maps to stdin and read one msgpack map per request from
stdout. Logs go to stderr. Requests are answered synchronously and in order,
with the time taken in microseconds.

# IPC

Every request carries an "id", echoed in the response, and an optional
"action". Without an action a request asks for similar words:

	{"id": "q1", "w": "граф", "n": 5}

and is answered with neighbours ranked by score:

	{"id": "q1", "s": [{"w": "графиня", "v": 0.6}, {"w": "князь", "v": 0.55}], "c": 2, "t": 87}

Other actions:

	{"id": "q2", "action": "words", "p": "гра", "l": 10}
	{"id": "q3", "action": "score", "a": "граф", "b": "князь"}
	{"id": "q4", "action": "stats"}
	{"id": "q5", "action": "reload"}

Failures are answered with a CompletionError. A thesaurus without data
answers every query with code 503.
*/
package server

// SimilarRequest asks for the n most similar words of w.
type SimilarRequest struct {
	ID   string `msgpack:"id"`
	Word string `msgpack:"w"`
	N    int    `msgpack:"n,omitempty"`
}

// SimilarNeighbor is one ranked neighbour.
type SimilarNeighbor struct {
	Word  string  `msgpack:"w"`
	Score float32 `msgpack:"v"`
}

// SimilarResponse answers a SimilarRequest.
type SimilarResponse struct {
	ID        string            `msgpack:"id"`
	Neighbors []SimilarNeighbor `msgpack:"s"`
	Count     int               `msgpack:"c"`
	TimeTaken int64             `msgpack:"t"`
}

// WordsRequest completes source words starting with Prefix.
type WordsRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Prefix string `msgpack:"p"`
	Limit  int    `msgpack:"l,omitempty"`
}

// WordEntry is a source word with its neighbour count.
type WordEntry struct {
	Word      string `msgpack:"w"`
	Neighbors int    `msgpack:"n"`
}

// WordsResponse answers a WordsRequest.
type WordsResponse struct {
	ID        string      `msgpack:"id"`
	Words     []WordEntry `msgpack:"s"`
	Count     int         `msgpack:"c"`
	TimeTaken int64       `msgpack:"t"`
}

// ScoreRequest asks for the stored score of (A, B).
type ScoreRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	A      string `msgpack:"a"`
	B      string `msgpack:"b"`
}

// ScoreResponse answers a ScoreRequest. Found is false for unknown pairs.
type ScoreResponse struct {
	ID    string  `msgpack:"id"`
	Score float32 `msgpack:"v"`
	Found bool    `msgpack:"f"`
}

// StatusResponse answers stats and reload requests and announces readiness.
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// envelope is decoded first to route a request.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}
