// Package rpc serves the session contract as JSON-RPC 2.0 over a
// Content-Length framed stream, for editors.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"storytell/internal/session"
	"storytell/internal/trace"
	"storytell/internal/version"
)

var (
	// ErrExit signals a clean stop after "shutdown" then "exit".
	ErrExit = errors.New("rpc exit")
	// ErrExitWithoutShutdown signals "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("rpc exit without shutdown")
)

// OpenFunc opens the project under root.
type OpenFunc func(ctx context.Context, root string) (*session.Session, error)

// Options configures a server.
type Options struct {
	Open OpenFunc
	Log  io.Writer // stderr when nil
}

// Server owns the sessions opened by one client.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	open   OpenFunc
	log    io.Writer

	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
	shutdown bool
}

func NewServer(in io.Reader, out io.Writer, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = os.Stderr
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		open:     opts.Open,
		log:      log,
		sessions: make(map[uuid.UUID]*session.Session),
	}
}

// Run serves requests until the input ends or the client exits. A clean
// EOF returns nil.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("bad message: %v", err)
			if err := s.sendError(json.RawMessage("null"), CodeParseError, "parse error"); err != nil {
				return err
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handle(ctx, &msg); err != nil {
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, msg *message) error {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeCommand, "rpc:"+msg.Method, trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpan(ctx, span)
	defer span.End("")

	switch msg.Method {
	case "initialize":
		return s.reply(msg, map[string]any{
			"serverInfo": serverInfo{Name: "storytell", Version: version.Version},
		}, nil)
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.sessions = make(map[uuid.UUID]*session.Session)
		s.mu.Unlock()
		return s.reply(msg, nil, nil)
	case "exit":
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.shutdown {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}

	h, ok := handlers[msg.Method]
	if !ok {
		if len(msg.ID) == 0 {
			return nil
		}
		return s.sendError(msg.ID, CodeMethodNotFound, "method not found: "+msg.Method)
	}
	result, err := h(ctx, s, msg.Params)
	if err != nil {
		span.WithExtra("error", err.Error())
	}
	return s.reply(msg, result, err)
}

// reply answers requests; notifications get nothing back.
func (s *Server) reply(msg *message, result any, err error) error {
	if len(msg.ID) == 0 {
		if err != nil {
			s.logf("%s: %v", msg.Method, err)
		}
		return nil
	}
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			rerr = &Error{Code: codeFor(err), Message: err.Error()}
		}
		return s.sendError(msg.ID, rerr.Code, rerr.Message)
	}
	return s.send(map[string]any{"jsonrpc": "2.0", "id": msg.ID, "result": result})
}

func codeFor(err error) int {
	if errors.Is(err, session.ErrUnknownBlob) {
		return CodeUnknownBlob
	}
	return CodeOperation
}

func (s *Server) sendError(id json.RawMessage, code int, text string) error {
	return s.send(map[string]any{"jsonrpc": "2.0", "id": id, "error": Error{Code: code, Message: text}})
}

func (s *Server) send(v any) error {
	payload, err := marshal(v)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "rpc: "+format+"\n", args...)
}

func (s *Server) lookup(id string) (*session.Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid session id %q", id)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, &Error{Code: CodeUnknownSession, Message: "unknown session " + id}
	}
	return sess, nil
}
