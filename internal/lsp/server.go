package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gradualtype/tycheck/internal/answers"
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/driver"
	"github.com/gradualtype/tycheck/internal/extparser"
	"github.com/gradualtype/tycheck/internal/loader"
	"github.com/gradualtype/tycheck/internal/modname"
)

// document is one open editor buffer, keyed by its LSP URI, per
// funvibe-funxy/cmd/lsp's DocumentState (content + a mutex-protected map).
type document struct {
	name string // derived module name
	dir  string // containing directory, added to the Config's search paths
	text string
}

// overlayDB is a loader.SourceDB that serves open-editor text ahead of the
// filesystem, so `check`-on-save sees unsaved edits, falling back to
// loader.Filesystem (and through it, the stdlib fixture) for anything not
// open in the editor.
type overlayDB struct {
	server *Server
	fs     *loader.Filesystem
}

func (o *overlayDB) Resolve(name modname.Name, cfg modname.Config) (modname.Path, string, error) {
	o.server.mu.Lock()
	for uri, d := range o.server.documents {
		if d.name == name.String() {
			o.server.mu.Unlock()
			return modname.NewFilesystemPath(uriToPath(uri)), d.text, nil
		}
	}
	o.server.mu.Unlock()
	return o.fs.Resolve(name, cfg)
}

// Server holds one LSP session's state: the open-document overlay and the
// driver.State shared across every textDocument/did* notification.
type Server struct {
	writer io.Writer
	stderr io.Writer

	mu        sync.Mutex
	documents map[string]document
	cfg       modname.Config

	state *driver.State
}

// Serve runs one LSP session to completion (until stdin closes or an
// `exit` notification arrives), reading requests from stdin and writing
// responses/notifications to stdout.
func Serve(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	s := &Server{
		writer:    stdout,
		stderr:    stderr,
		documents: map[string]document{},
		cfg:       modname.NewConfig(modname.NewRuntimeMetadata()),
	}
	l := loader.New(&overlayDB{server: s, fs: loader.NewFilesystem()})
	s.state = driver.NewState(l, extparser.Stub{}, classmodel.NewRegistry(), answers.NewBuiltins())

	reader := bufio.NewReader(stdin)
	for {
		content, err := readFramedMessage(reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := s.handleMessage(ctx, content); err != nil {
			if err == io.EOF { // exit notification
				return nil
			}
			fmt.Fprintf(s.stderr, "lsp: %v\n", err)
		}
	}
}

// readFramedMessage reads one Content-Length-delimited JSON-RPC message,
// per funvibe-funxy/cmd/lsp/server.go's header-then-body loop.
func readFramedMessage(reader *bufio.Reader) ([]byte, error) {
	var contentLength int
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if rest, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, fmt.Errorf("lsp: invalid Content-Length %q: %w", rest, err)
			}
			contentLength = n
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("lsp: missing Content-Length header")
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Server) sendMessage(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

func (s *Server) respond(id any, result any) error {
	return s.sendMessage(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id any, code int, message string) error {
	return s.sendMessage(ResponseMessage{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *Server) notify(method string, params any) error {
	return s.sendMessage(NotificationMessage{Jsonrpc: "2.0", Method: method, Params: params})
}

func (s *Server) handleMessage(ctx context.Context, content []byte) error {
	var base struct {
		ID     any             `json:"id,omitempty"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(content, &base); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	switch base.Method {
	case "initialize":
		var params InitializeParams
		json.Unmarshal(base.Params, &params)
		return s.respond(base.ID, InitializeResult{Capabilities: ServerCapabilities{TextDocumentSync: 1}})

	case "initialized":
		return nil

	case "shutdown":
		return s.respond(base.ID, nil)

	case "exit":
		return io.EOF

	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if err := json.Unmarshal(base.Params, &params); err != nil {
			return err
		}
		s.updateDocument(params.TextDocument.URI, params.TextDocument.Text)
		return s.publishDiagnostics(ctx, params.TextDocument.URI)

	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if err := json.Unmarshal(base.Params, &params); err != nil {
			return err
		}
		if len(params.ContentChanges) == 0 {
			return nil
		}
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.updateDocument(params.TextDocument.URI, text)
		return s.publishDiagnostics(ctx, params.TextDocument.URI)

	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if err := json.Unmarshal(base.Params, &params); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.documents, params.TextDocument.URI)
		s.mu.Unlock()
		return nil

	default:
		if base.ID != nil {
			return s.respondError(base.ID, ErrMethodNotFound, fmt.Sprintf("method not found: %s", base.Method))
		}
		return nil
	}
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// moduleNameForURI mirrors internal/cli.moduleNameForPath: a document's
// module name is its base name without ".py", resolved against its own
// directory as a search path.
func moduleNameForURI(uri string) (dir, name string) {
	path := uriToPath(uri)
	dir = filepath.Dir(path)
	name = strings.TrimSuffix(filepath.Base(path), ".py")
	return dir, name
}

// updateDocument records uri's current text and, the first time a
// directory is seen, adds it to the shared Config's search paths so the
// loader can resolve imports between open documents in the same directory.
func (s *Server) updateDocument(uri, text string) {
	dir, name := moduleNameForURI(uri)

	s.mu.Lock()
	s.documents[uri] = document{name: name, dir: dir, text: text}
	known := false
	for _, p := range s.cfg.SearchPaths {
		if p == dir {
			known = true
			break
		}
	}
	if !known {
		s.cfg = modname.NewConfig(s.cfg.Runtime, append(s.cfg.SearchPaths, dir)...)
	}
	cfg := s.cfg
	s.mu.Unlock()

	handle := modname.NewHandle(modname.NewName(name), cfg, "lsp")
	s.state.MarkDirty(handle, true, true)
}

// publishDiagnostics re-checks uri's module and sends the result as a
// textDocument/publishDiagnostics notification, converting internal/diag's
// 1-based line/column (spec §6's legacy JSON shape) to LSP's 0-based
// Position.
func (s *Server) publishDiagnostics(ctx context.Context, uri string) error {
	s.mu.Lock()
	doc, ok := s.documents[uri]
	cfg := s.cfg
	s.mu.Unlock()
	if !ok {
		return nil
	}

	handle := modname.NewHandle(modname.NewName(doc.name), cfg, "lsp")
	results, err := s.state.RunOneShot(ctx, []modname.Handle{handle}, driver.Options{})
	if err != nil {
		return err
	}

	var lspDiags []Diagnostic
	if a, ok := results[handle]; ok {
		for _, d := range a.Diagnostics {
			lspDiags = append(lspDiags, toLSPDiagnostic(d))
		}
	}
	return s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{URI: uri, Diagnostics: lspDiags})
}

func toLSPDiagnostic(d diag.Diagnostic) Diagnostic {
	return Diagnostic{
		Range: Range{
			Start: Position{Line: max0(d.Line - 1), Character: max0(d.Column - 1)},
			End:   Position{Line: max0(d.StopLine - 1), Character: max0(d.StopColumn - 1)},
		},
		Severity: SeverityError,
		Code:     string(d.Code),
		Source:   "tycheck",
		Message:  d.Message,
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
