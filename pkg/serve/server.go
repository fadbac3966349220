// Package serve answers newline-delimited JSON requests on a reader/writer
// pair, the way a native messaging host talks to a browser extension.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/suggest"
)

// Version is the server protocol version
const Version = "1.0.0"

// Engine supplies the compiled configuration set that requests resolve
// against. It is consulted once per request so updates apply immediately.
type Engine interface {
	Compiled() []pattern.CompiledGroup
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog sets the catalog suggestion descriptions are rendered from.
func WithCatalog(c *suggest.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithLogger sets the server logger.
func WithLogger(l pslog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// Server manages one request stream
type Server struct {
	engine  Engine
	catalog *suggest.Catalog
	log     pslog.Logger
	encoder *json.Encoder
	decoder *json.Decoder
}

type handler func(s *Server, payload json.RawMessage) (any, error)

var handlers = map[string]handler{
	TypeResolve:      (*Server).handleResolve,
	TypeResolveBatch: (*Server).handleResolveBatch,
	TypeSuggest:      (*Server).handleSuggest,
	TypeValidate:     (*Server).handleValidate,
}

// NewServer creates a new streaming server
func NewServer(engine Engine, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = suggest.English()
	}
	if s.log == nil {
		s.log = pslog.Ctx(context.Background())
	}
	return s
}

// Run sends the ready message and serves requests until the input ends, a
// close request arrives, or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.send(TypeReady, ReadyData{Version: Version, Groups: len(s.engine.Compiled())})

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Requests decoded before the read error still get answers.
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if !errors.Is(err, io.EOF) {
						s.log.Warn("serve.decode.failed", "err", err)
						s.sendError(TypeDecode, err.Error())
					}
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	if req.Type == TypeClose {
		s.log.Debug("serve.close")
		return true
	}
	h, ok := handlers[req.Type]
	if !ok {
		s.sendError(TypeUnknown, "unknown request type: "+req.Type)
		return false
	}
	data, err := h(s, req.Payload)
	if err != nil {
		s.log.Debug("serve.request.failed", "type", req.Type, "err", err)
		s.sendError(req.Type, err.Error())
		return false
	}
	s.send(req.Type, data)
	return false
}

func (s *Server) handleResolve(payload json.RawMessage) (any, error) {
	var p ResolvePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, errors.New("url is required")
	}
	return Resolve(p.URL, s.engine.Compiled()), nil
}

func (s *Server) handleResolveBatch(payload json.RawMessage) (any, error) {
	var p ResolveBatchPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, err
	}
	compiled := s.engine.Compiled()
	out := ResolveBatchResult{Results: make([]ResolveResult, 0, len(p.URLs))}
	for _, u := range p.URLs {
		out.Results = append(out.Results, Resolve(u, compiled))
	}
	return out, nil
}

func (s *Server) handleSuggest(payload json.RawMessage) (any, error) {
	var p ResolvePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, err
	}
	options := suggest.For(p.URL, s.catalog)
	if options == nil {
		return nil, errors.New("cannot suggest patterns for " + p.URL)
	}
	return SuggestResult{URL: p.URL, Options: options}, nil
}

func (s *Server) handleValidate(payload json.RawMessage) (any, error) {
	var p ValidatePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, err
	}
	return Validate(p.Config), nil
}

func unmarshalPayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.New("payload is required")
	}
	return json.Unmarshal(payload, v)
}

func (s *Server) send(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, err.Error())
		return
	}
	if err := s.encoder.Encode(Response{Success: true, Type: reqType, Data: data}); err != nil {
		s.log.Warn("serve.write.failed", "type", reqType, "err", err)
	}
}

func (s *Server) sendError(reqType, msg string) {
	if err := s.encoder.Encode(Response{Success: false, Type: reqType, Error: msg}); err != nil {
		s.log.Warn("serve.write.failed", "type", reqType, "err", err)
	}
}
