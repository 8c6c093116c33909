// Package server exposes the homelab actions over HTTP. One endpoint per
// action, JSON envelope responses, request context flowing into every CLI
// invocation and SSH session so a dropped client kills the work.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/kdlocpanda/vision/internal/kube"
	"github.com/kdlocpanda/vision/internal/logger"
	"github.com/kdlocpanda/vision/internal/rancher"
	"github.com/kdlocpanda/vision/internal/vision"
)

// Services holds the action implementations the handlers dispatch to.
type Services struct {
	Kube    *kube.Service
	Rancher *rancher.Service
	Vision  *vision.Executor
}

// Server is the HTTP front of the action daemon. nginx terminates TLS in
// front of it, so it binds to localhost by default and speaks plain HTTP.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	log        logger.Logger
}

// New binds the listen address and wires the routes. The server does not
// accept connections until Start is called.
func New(listen string, svc Services) (*Server, error) {
	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener: listener,
		addr:     listener.Addr().String(),
		log:      logger.NewEnvLogger("[server]"),
	}

	h := &handlers{svc: svc, log: s.log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("GET /api/v1/pods", h.listPods)
	mux.HandleFunc("GET /api/v1/pods/{name}/logs", h.podLogs)
	mux.HandleFunc("DELETE /api/v1/pods/{name}", h.deletePod)
	mux.HandleFunc("GET /api/v1/namespaces", h.listNamespaces)
	mux.HandleFunc("GET /api/v1/deployments", h.listDeployments)
	mux.HandleFunc("GET /api/v1/cluster-info", h.clusterInfo)
	mux.HandleFunc("POST /api/v1/kubectl", h.rawKubectl)

	mux.HandleFunc("GET /api/v1/context", h.currentContext)
	mux.HandleFunc("PUT /api/v1/context", h.setContext)
	mux.HandleFunc("GET /api/v1/contexts", h.listContexts)
	mux.HandleFunc("GET /api/v1/vms", h.listVMs)
	mux.HandleFunc("POST /api/v1/vms/{name}/power", h.powerVM)
	mux.HandleFunc("POST /api/v1/kubeconfig", h.downloadKubeconfig)

	mux.HandleFunc("POST /api/v1/vision/exec", h.visionExec)

	s.httpServer = &http.Server{
		Handler: mux,
		// Remote commands can legitimately run for a minute; the write
		// timeout stays above the longest operation timeout.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins accepting connections. Non-blocking.
func (s *Server) Start() {
	s.log.Info("listening on %s", s.addr)
	go func() {
		if err := s.httpServer.Serve(s.listener); err != http.ErrServerClosed {
			s.log.Error("http server stopped: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down, waiting for in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	// Shutdown only closes listeners handed to Serve; if Start was never
	// called the bound socket is still ours to release.
	_ = s.listener.Close()
	return err
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the route-dispatching handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
