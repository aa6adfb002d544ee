// Package lsp speaks Language Server Protocol 3.17 over stdio (spec §6's
// `lsp` command), grounded on funvibe-funxy/cmd/lsp's hand-rolled
// JSON-RPC-over-stdio framing (Content-Length headers + JSON bodies)
// rather than a third-party LSP SDK, matching that pack repo's own choice.
package lsp

// RequestMessage / ResponseMessage / NotificationMessage mirror
// funvibe-funxy/cmd/lsp/protocol.go's base JSON-RPC envelopes.
type RequestMessage struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      any         `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  any         `json:"params,omitempty"`
}

type ResponseMessage struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type NotificationMessage struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes used by this server.
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInternalError  = -32603
)

type InitializeParams struct {
	RootURI *string `json:"rootUri,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

type ServerCapabilities struct {
	TextDocumentSync int  `json:"textDocumentSync"` // 1 = full document sync
	HoverProvider    bool `json:"hoverProvider"`
}

type TextDocumentItem struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type VersionedTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"` // full-document sync: the new complete text
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidCloseTextDocumentParams struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`
}

// Position and Range are LSP's 0-based line/character locations, distinct
// from internal/diag.Diagnostic's 1-based Line/Column (spec §6's legacy
// JSON shape) — publishDiagnostics converts between the two.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is the LSP wire shape for one diagnostic, as published via
// textDocument/publishDiagnostics.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"` // 1 = Error
	Code     string `json:"code"`
	Source   string `json:"source"`
	Message  string `json:"message"`
}

const SeverityError = 1

type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
