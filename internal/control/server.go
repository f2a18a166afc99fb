package control

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// CoordinatorServer is a thin struct wrapping the token signer: it
// serves issue_token to destinations over HTTP under /api/v1 and
// validates sessions in-process through ValidateSession.
type CoordinatorServer struct {
	secret []byte
	issuer string

	mu       sync.Mutex
	sessions map[string]bool
}

// NewCoordinatorServer creates a CoordinatorServer signing tokens with
// secret under the given issuer identity string.
func NewCoordinatorServer(secret []byte, issuer string) *CoordinatorServer {
	return &CoordinatorServer{secret: secret, issuer: issuer, sessions: make(map[string]bool)}
}

// AdmitSession records sessionID as valid so a later ValidateSession
// call for it succeeds.
func (s *CoordinatorServer) AdmitSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = true
}

// ValidateSession implements SessionValidator against the in-process
// admitted-session set.
func (s *CoordinatorServer) ValidateSession(ctx context.Context, sessionID string, tok *CapabilityToken) error {
	s.mu.Lock()
	admitted := s.sessions[sessionID]
	s.mu.Unlock()
	if !admitted {
		return errSessionNotAdmitted
	}
	return VerifyToken(s.secret, tok, time.Now())
}

type issueTokenRequest struct {
	AllowPath  string `json:"allow_path"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// RegisterHTTP registers the coordinator's native HTTP routes.
func (s *CoordinatorServer) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/control/issue_token", s.handleIssueToken)
}

func (s *CoordinatorServer) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON body")
		return
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second
	tok, err := IssueToken(s.secret, req.AllowPath, s.issuer, ttl, time.Now())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// StartControlPlane starts an (intentionally unregistered) gRPC server
// alongside a native HTTP listener: the gRPC server exists so a
// future generated service can register against it, while grpc-gateway
// is attempted first and falls back to impl's native HTTP handlers
// when no generated stubs are wired in.
func StartControlPlane(ctx context.Context, grpcAddr, restAddr string, impl *CoordinatorServer) (grpcStop func(), restStop func(), err error) {
	grpcServer := grpc.NewServer()

	l, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, nil, err
	}
	go func() { _ = grpcServer.Serve(l) }()
	grpcStop = func() { grpcServer.GracefulStop(); _ = l.Close() }

	mux := http.NewServeMux()
	gw := runtime.NewServeMux()
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if err := registerGateway(ctx, gw, grpcAddr, dialOpts); err == nil {
		mux.Handle("/", gw)
	} else {
		impl.RegisterHTTP(mux)
	}

	server := &http.Server{Addr: restAddr, Handler: mux}
	go func() { _ = server.ListenAndServe() }()
	restStop = func() { _ = server.Close() }

	return grpcStop, restStop, nil
}

// registerGateway always reports no generated stubs are available,
// triggering the native HTTP fallback above. Orbit has no protobuf
// service definitions for the control plane, so this is an explicit
// placeholder rather than pretending to wire a gateway that does not
// exist.
func registerGateway(ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) error {
	return errNoGatewayStubs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "message": msg})
}
