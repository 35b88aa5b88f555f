package rpc

import (
	"encoding/json"

	"storytell/internal/session"
)

type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
	CodeOperation      = -32000
	CodeUnknownSession = -32001
	CodeUnknownBlob    = -32002
)

type openParams struct {
	Root string `json:"root"`
}

type openResult struct {
	Session string         `json:"session"`
	Tree    []session.Node `json:"tree"`
}

type sessionParams struct {
	Session string `json:"session"`
}

type createParams struct {
	Session string         `json:"session"`
	Name    string         `json:"name"`
	Parent  session.BlobID `json:"parent"`
	IsDir   bool           `json:"isDir"`
}

type renameParams struct {
	Session string         `json:"session"`
	ID      session.BlobID `json:"id"`
	Name    string         `json:"name"`
}

type blobParams struct {
	Session string         `json:"session"`
	ID      session.BlobID `json:"id"`
}

type textParams struct {
	Session string         `json:"session"`
	ID      session.BlobID `json:"id"`
	Text    string         `json:"text"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
