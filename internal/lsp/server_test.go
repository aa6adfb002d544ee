package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func frame(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(data), data)
}

func readMessages(t *testing.T, r *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	br := bufio.NewReader(r)
	for {
		body, err := readFramedMessage(br)
		if err != nil {
			break
		}
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			t.Fatalf("invalid JSON in server output: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestServeInitializeRespondsWithCapabilities(t *testing.T) {
	var in bytes.Buffer
	in.WriteString(frame(t, RequestMessage{Jsonrpc: "2.0", ID: 1, Method: "initialize", Params: InitializeParams{}}))
	in.WriteString(frame(t, NotificationMessage{Jsonrpc: "2.0", Method: "exit"}))

	var out, errs bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- Serve(context.Background(), &in, &out, &errs) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after exit")
	}

	msgs := readMessages(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d: %v", len(msgs), msgs)
	}
	result, ok := msgs[0]["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected a result object, got %v", msgs[0])
	}
	if _, ok := result["capabilities"]; !ok {
		t.Fatalf("expected capabilities in the initialize result, got %v", result)
	}
}

func TestServeDidOpenPublishesDiagnostics(t *testing.T) {
	var in bytes.Buffer
	in.WriteString(frame(t, RequestMessage{
		Jsonrpc: "2.0", ID: 1, Method: "textDocument/didOpen",
		Params: DidOpenTextDocumentParams{TextDocument: TextDocumentItem{URI: "file:///tmp/mod.py", Text: "x = 1\n"}},
	}))
	in.WriteString(frame(t, NotificationMessage{Jsonrpc: "2.0", Method: "exit"}))

	var out, errs bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- Serve(context.Background(), &in, &out, &errs) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after exit")
	}

	msgs := readMessages(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("expected one publishDiagnostics notification, got %d", len(msgs))
	}
	if msgs[0]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("unexpected method: %v", msgs[0]["method"])
	}
	params, _ := msgs[0]["params"].(map[string]any)
	diags, _ := params["diagnostics"].([]any)
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic (no parser is wired in), got %d", len(diags))
	}
}
