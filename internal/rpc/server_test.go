package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/host"
	"storytell/internal/session"
)

func TestFramingMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, []byte(`{"method":"one"}`)))
	require.NoError(t, writeMessage(&buf, []byte(`{"method":"two"}`)))

	r := bufio.NewReader(&buf)
	got, err := readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, `{"method":"one"}`, string(got))
	got, err = readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, `{"method":"two"}`, string(got))

	_, err = readMessage(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFramingErrors(t *testing.T) {
	_, err := readMessage(bufio.NewReader(bytes.NewBufferString("X-Other: 1\r\n\r\n{}")))
	assert.ErrorContains(t, err, "missing Content-Length")
	_, err = readMessage(bufio.NewReader(bytes.NewBufferString("Content-Length: nope\r\n\r\n")))
	assert.ErrorContains(t, err, "invalid Content-Length")
	_, err = readMessage(bufio.NewReader(bytes.NewBufferString("Content-Length: 10\r\n\r\n{}")))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type client struct {
	t    *testing.T
	w    *io.PipeWriter
	r    *bufio.Reader
	next int
	done chan error
}

func startServer(t *testing.T, files map[string]string) *client {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	mem := host.NewMemory(files)
	srv := NewServer(inR, outW, Options{
		Open: func(ctx context.Context, root string) (*session.Session, error) {
			return session.Open(ctx, mem, root, session.Config{})
		},
		Log: io.Discard,
	})
	c := &client{t: t, w: inW, r: bufio.NewReader(outR), done: make(chan error, 1)}
	go func() {
		err := srv.Run(context.Background())
		_ = outW.Close()
		c.done <- err
	}()
	t.Cleanup(func() { _ = inW.Close() })
	return c
}

func (c *client) notify(method string, params any) {
	c.t.Helper()
	payload, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
	require.NoError(c.t, err)
	require.NoError(c.t, writeMessage(c.w, payload))
}

func (c *client) call(method string, params any) message {
	c.t.Helper()
	c.next++
	req := map[string]any{"jsonrpc": "2.0", "id": c.next, "method": method}
	if params != nil {
		req["params"] = params
	}
	payload, err := json.Marshal(req)
	require.NoError(c.t, err)
	require.NoError(c.t, writeMessage(c.w, payload))

	raw, err := readMessage(c.r)
	require.NoError(c.t, err)
	var resp message
	require.NoError(c.t, json.Unmarshal(raw, &resp))
	assert.JSONEq(c.t, string(mustJSON(c.t, c.next)), string(resp.ID))
	return resp
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSessionLifecycle(t *testing.T) {
	c := startServer(t, map[string]string{
		"main.story": "# Start\n-> start\n-> nowhere\n",
	})

	resp := c.call("initialize", map[string]any{})
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), `"name":"storytell"`)

	resp = c.call("session/open", openParams{Root: ""})
	require.Nil(t, resp.Error)
	var opened openResult
	require.NoError(t, json.Unmarshal(resp.Result, &opened))
	require.Len(t, opened.Tree, 1)
	main := opened.Tree[0].ID

	resp = c.call("session/recompileFile", textParams{Session: opened.Session, ID: main, Text: "# Start\n{x = 1} <b>\n"})
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), `"magicVariables":[{"name":"x","kind":1}]`)
	assert.Contains(t, string(resp.Result), `<b>`)
	assert.Contains(t, string(resp.Result), `"diagnostics":null`)

	resp = c.call("session/createEntry", createParams{Session: opened.Session, Name: "side", IsDir: false})
	require.Nil(t, resp.Error)
	var node session.Node
	require.NoError(t, json.Unmarshal(resp.Result, &node))
	assert.Equal(t, "side.story", node.Name)

	resp = c.call("session/rename", renameParams{Session: opened.Session, ID: node.ID, Name: "aside"})
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), `"name":"aside.story"`)

	resp = c.call("session/compile", sessionParams{Session: opened.Session})
	require.Nil(t, resp.Error)
	var project struct {
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &project))
	require.Len(t, project.Files, 2)
	assert.Equal(t, "main.story", project.Files[0].Path)
	assert.Equal(t, "aside.story", project.Files[1].Path)

	resp = c.call("session/delete", blobParams{Session: opened.Session, ID: 99})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnknownBlob, resp.Error.Code)

	resp = c.call("session/close", sessionParams{Session: opened.Session})
	require.Nil(t, resp.Error)
	resp = c.call("session/compile", sessionParams{Session: opened.Session})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnknownSession, resp.Error.Code)

	resp = c.call("shutdown", nil)
	require.Nil(t, resp.Error)
	c.notify("exit", nil)
	assert.ErrorIs(t, <-c.done, ErrExit)
}

func TestRequestErrors(t *testing.T) {
	c := startServer(t, nil)

	resp := c.call("session/teleport", map[string]any{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)

	resp = c.call("session/compile", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp = c.call("session/compile", sessionParams{Session: "not-a-uuid"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	// notifications never get an answer; the next call still lines up
	c.notify("session/compile", sessionParams{Session: "x"})
	resp = c.call("initialize", nil)
	require.Nil(t, resp.Error)

	c.notify("exit", nil)
	assert.ErrorIs(t, <-c.done, ErrExitWithoutShutdown)
}
