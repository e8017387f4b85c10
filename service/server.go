// Package service implements the evaluation service front-end (C7): a
// protocol-speaking server that advertises its own AgentCard describing the
// C6 tool surface as skills, serves discovery, and routes incoming
// message/send calls through an LLM-backed controller.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/a2aeval/bridge/internal/obs"
	"github.com/a2aeval/bridge/internal/reqpolicy"
	"github.com/a2aeval/bridge/protocol"
)

// ServerConfig is static configuration for the front-end server.
type ServerConfig struct {
	AgentName        string
	AgentDescription string
	BaseURL          string
	Version          string
}

// Server is the Agent Protocol server fronting the C6 tool surface. It
// maps contextId onto ControllerSession one-to-one (the front-end's only
// stateful concern) and rate-limits requests per contextId so one caller's
// run_evaluation storms cannot starve others sharing the server.
type Server struct {
	cfg      ServerConfig
	router   *Router
	sessions SessionStore
	log      obs.Logger

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit rate.Limit
	burst     int
}

// Option configures a Server.
type Option func(*Server)

// WithSessionStore overrides the session mapping backend. Defaults to an
// in-memory MemorySessionStore.
func WithSessionStore(s SessionStore) Option {
	return func(srv *Server) { srv.sessions = s }
}

// WithLogger overrides the structured logger. Defaults to obs.NoopLogger.
func WithLogger(l obs.Logger) Option {
	return func(srv *Server) { srv.log = l }
}

// WithRateLimit overrides the per-contextId request rate (requests/sec) and
// burst. Defaults to 2 req/s with a burst of 5.
func WithRateLimit(perSecond rate.Limit, burst int) Option {
	return func(srv *Server) { srv.rateLimit = perSecond; srv.burst = burst }
}

// NewServer constructs a Server.
func NewServer(cfg ServerConfig, router *Router, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		router:    router,
		sessions:  NewMemorySessionStore(),
		log:       obs.NoopLogger{},
		limiters:  make(map[string]*rate.Limiter),
		rateLimit: 2,
		burst:     5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AgentCard builds the discovery document describing the C6 tool surface as
// skills.
func (s *Server) AgentCard() protocol.AgentCard {
	skills := make([]protocol.Skill, 0, len(routerTools))
	for _, t := range routerTools {
		skills = append(skills, protocol.Skill{ID: t.Name, Name: t.Name, Description: t.Description})
	}
	return protocol.AgentCard{
		Name:        s.cfg.AgentName,
		URL:         s.cfg.BaseURL,
		Description: s.cfg.AgentDescription,
		Version:     s.cfg.Version,
		Capabilities: protocol.AgentCapabilities{
			Streaming:         false,
			PushNotifications: false,
		},
		Skills: skills,
	}
}

// Handler returns an http.Handler serving discovery and message/send.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent-card.json", s.handleDiscovery)
	mux.HandleFunc("/", s.handleRPC)
	return mux
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.AgentCard())
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeRPCError(w, "", -32700, "parse error")
		return
	}
	if req.Method != "message/send" {
		s.writeRPCError(w, req.ID, -32601, fmt.Sprintf("method not found: %s", req.Method))
		return
	}

	var params protocol.SendMessageParams
	paramsRaw, err := json.Marshal(req.Params)
	if err != nil || json.Unmarshal(paramsRaw, &params) != nil {
		s.writeRPCError(w, req.ID, -32602, "invalid params")
		return
	}

	ctx := reqpolicy.Into(r.Context(), reqpolicy.FromHeaders(r.Header.Get(reqpolicy.AllowToolsHeader), r.Header.Get(reqpolicy.DenyToolsHeader)))

	contextID := params.Message.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	if !s.limiterFor(contextID).Allow() {
		s.writeRPCError(w, req.ID, -32000, "rate limit exceeded for this session")
		return
	}

	userText := extractText(params.Message)

	session, err := s.sessions.GetOrCreate(ctx, contextID)
	if err != nil {
		s.writeRPCError(w, req.ID, -32000, "session store error")
		return
	}

	replyText, updated, err := s.router.Handle(ctx, session, userText)
	if err != nil {
		s.log.Error(ctx, "router failed", "contextId", contextID, "error", err.Error())
		s.writeRPCError(w, req.ID, -32000, "internal error handling request")
		return
	}
	if err := s.sessions.Save(ctx, updated); err != nil {
		s.log.Warn(ctx, "failed to save session", "contextId", contextID)
	}

	reply := protocol.Message{
		MessageID: uuid.NewString(),
		Role:      protocol.RoleAgent,
		ContextID: contextID,
		Parts:     []protocol.Part{protocol.TextPart(replyText)},
	}
	resultRaw, _ := json.Marshal(reply)
	resp := protocol.RPCResponse{JSONRPC: "2.0", ID: req.ID, Result: resultRaw}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) limiterFor(contextID string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, ok := s.limiters[contextID]
	if !ok {
		l = rate.NewLimiter(s.rateLimit, s.burst)
		s.limiters[contextID] = l
	}
	return l
}

func (s *Server) writeRPCError(w http.ResponseWriter, id string, code int, message string) {
	resp := protocol.RPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &protocol.RPCError{Code: code, Message: message},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func extractText(msg protocol.Message) string {
	var text string
	for _, p := range msg.Parts {
		if p.Type == protocol.PartTypeText {
			if text != "" {
				text += " "
			}
			text += p.Text
		}
	}
	return text
}

// contextDeadline returns parent bounded by a timeout of d. handleRPC does
// not call it: a router run is bounded only by the incoming request's own
// context.
func contextDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
