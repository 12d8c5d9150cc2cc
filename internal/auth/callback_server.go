package auth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	callbackHTML = `<!DOCTYPE html>
<html>
<head><title>Calendar Access Granted</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
	<h1>Calendar access granted</h1>
	<p>activity-report can now read your calendar. You can close this window.</p>
</body>
</html>`

	errorHTML = `<!DOCTYPE html>
<html>
<head><title>Calendar Access Failed</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
	<h1>Calendar access failed</h1>
	<p>%s</p>
	<p>Run the command again to retry.</p>
</body>
</html>`
)

// CallbackServer receives the OAuth redirect carrying the authorization code
type CallbackServer struct {
	server   *http.Server
	listener net.Listener
	state    string
	codeChan chan string
	errChan  chan error
	logger   *zap.Logger
	port     int
}

// NewCallbackServer creates a callback server that accepts only redirects
// carrying state. Port 0 picks a free port.
func NewCallbackServer(port int, state string, logger *zap.Logger) *CallbackServer {
	return &CallbackServer{
		state:    state,
		codeChan: make(chan string, 1),
		errChan:  make(chan error, 1),
		logger:   logger,
		port:     port,
	}
}

// Listen starts serving /callback and returns the redirect URL to register
func (s *CallbackServer) Listen() (string, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.port))
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Debug("Callback server started", zap.String("address", listener.Addr().String()))
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.fail(err)
		}
	}()

	return fmt.Sprintf("http://%s/callback", listener.Addr().String()), nil
}

// Wait blocks until an authorization code arrives, the flow fails or ctx ends
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop stops the callback server
func (s *CallbackServer) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var problem string
	switch {
	case q.Get("error") != "":
		problem = "authorization error: " + q.Get("error")
	case q.Get("state") != s.state:
		problem = "state mismatch"
	case q.Get("code") == "":
		problem = "no authorization code received"
	}

	if problem != "" {
		s.logger.Error("Authorization failed", zap.String("reason", problem))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, errorHTML, html.EscapeString(problem))
		s.fail(fmt.Errorf("%s", problem))
		return
	}

	s.logger.Info("Authorization code received")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(callbackHTML))

	select {
	case s.codeChan <- q.Get("code"):
	default:
	}
}
