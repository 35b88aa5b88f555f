package rpc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"storytell/internal/session"
)

type handlerFunc func(ctx context.Context, s *Server, params json.RawMessage) (any, error)

var handlers map[string]handlerFunc

func init() {
	handlers = map[string]handlerFunc{
		"session/open": handleOpen,
		"session/tree": withSession(func(sess *session.Session, _ sessionParams) (any, error) { return sess.FileTree(), nil }),
		"session/createEntry": withSession(func(sess *session.Session, p createParams) (any, error) {
			return sess.CreateEntry(p.Name, p.Parent, p.IsDir)
		}),
		"session/rename":        withSession(func(sess *session.Session, p renameParams) (any, error) { return sess.Rename(p.ID, p.Name) }),
		"session/delete":        withSession(func(sess *session.Session, p blobParams) (any, error) { return nil, sess.Delete(p.ID) }),
		"session/recompileFile": withSession(func(sess *session.Session, p textParams) (any, error) { return sess.RecompileFile(p.ID, p.Text) }),
		"session/save":          withSession(func(sess *session.Session, p textParams) (any, error) { return sess.Save(p.ID, p.Text) }),
		"session/compile":       withSession(func(sess *session.Session, _ sessionParams) (any, error) { return sess.Compile(), nil }),
		"session/close":         handleClose,
	}
}

func decode[P any](raw json.RawMessage) (P, error) {
	var p P
	if len(raw) == 0 {
		return p, &Error{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return p, nil
}

// sessionOf reads the "session" field every session method carries.
func sessionOf(raw json.RawMessage) (string, error) {
	p, err := decode[sessionParams](raw)
	return p.Session, err
}

func withSession[P any](fn func(*session.Session, P) (any, error)) handlerFunc {
	return func(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
		id, err := sessionOf(raw)
		if err != nil {
			return nil, err
		}
		sess, err := s.lookup(id)
		if err != nil {
			return nil, err
		}
		p, err := decode[P](raw)
		if err != nil {
			return nil, err
		}
		return fn(sess, p)
	}
}

func handleOpen(ctx context.Context, s *Server, raw json.RawMessage) (any, error) {
	p, err := decode[openParams](raw)
	if err != nil {
		return nil, err
	}
	if s.open == nil {
		return nil, &Error{Code: CodeOperation, Message: "opening projects is not supported"}
	}
	sess, err := s.open(ctx, p.Root)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return openResult{Session: id.String(), Tree: sess.FileTree()}, nil
}

func handleClose(_ context.Context, s *Server, raw json.RawMessage) (any, error) {
	id, err := sessionOf(raw)
	if err != nil {
		return nil, err
	}
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.sessions, uuid.MustParse(id))
	s.mu.Unlock()
	return nil, nil
}
