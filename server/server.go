// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/formdrop/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel function also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over HTTP, over HTTPS with manual
// certificates, or over HTTPS with Let's Encrypt (http-01), depending on cfg.
// In the HTTPS modes a second server on :80 redirects to HTTPS (and answers
// ACME challenges). It blocks until ctx is canceled, then shuts down within
// cfg.HTTP.ShutdownTimeout.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return errors.New("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newServer(cfg, handler, logger)

	var (
		ln     net.Listener
		auxSrv *http.Server
		auxErr chan error // nil in HTTP-only mode; a nil channel never fires in select
		err    error
	)

	if !cfg.HTTP.UseHTTPS {
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	} else {
		var tlsCfg *tls.Config
		var mode string
		var auxHandler http.Handler
		tlsCfg, auxHandler, mode, err = tlsSetup(cfg, logger)
		if err != nil {
			return err
		}

		auxSrv = newServer(cfg, auxHandler, logger)
		auxSrv.Addr = ":80"
		auxErr = make(chan error, 1)
		go func() { auxErr <- serveAux(auxSrv) }()
		logger.Info("redirect server listening", zap.String("addr", auxSrv.Addr), zap.String("mode", mode))

		if m, ok := auxHandler.(*acmeHandler); ok {
			if werr := waitForCert(ctx, m.manager, cfg.TLS.Domain, 60*time.Second); werr != nil {
				logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(werr))
			}
		}

		srv.TLSConfig = tlsCfg
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		base, lerr := net.Listen("tcp", addr)
		if lerr != nil {
			_ = auxSrv.Shutdown(context.Background())
			return fmt.Errorf("listen https %s: %w", addr, lerr)
		}
		ln = tls.NewListener(base, tlsCfg)
		logger.Info("HTTPS server listening", zap.String("addr", addr), zap.String("mode", mode))
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			// ctx is already canceled; the shutdown window is its own.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if auxSrv != nil {
				_ = auxSrv.Shutdown(shutdownCtx)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			if auxSrv != nil {
				_ = auxSrv.Shutdown(context.Background())
			}
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				_ = ln.Close()
				return fmt.Errorf("redirect server error: %w", err)
			}
			auxSrv, auxErr = nil, nil
		}
	}
}

func newServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

func serveAux(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// acmeHandler answers ACME http-01 challenges and redirects everything else.
type acmeHandler struct {
	manager *autocert.Manager
	http.Handler
}

// tlsSetup returns the TLS config for the primary listener and the handler
// for the :80 server.
func tlsSetup(cfg *config.CoreConfig, logger *zap.Logger) (*tls.Config, http.Handler, string, error) {
	if cfg.TLS.UseLetsEncrypt {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		tlsCfg := &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: m.GetCertificate,
		}
		return tlsCfg, &acmeHandler{manager: m, Handler: m.HTTPHandler(httpRedirectHandler())}, "lets_encrypt", nil
	}

	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return nil, nil, "", errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
		var perm *permissiveKeyError
		if !errors.As(err, &perm) {
			return nil, nil, "", err
		}
		if cfg.Env == "prod" {
			return nil, nil, "", fmt.Errorf("production security: %w", err)
		}
		logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load TLS cert/key: %w", err)
	}
	tlsCfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}
	return tlsCfg, httpRedirectHandler(), "manual_tls", nil
}

// httpRedirectHandler redirects to the HTTPS URL with the same host and path.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func hasControlChars(s string) bool {
	for _, c := range s {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost reports whether host is safe to reflect into a redirect.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}
	hostPart := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		hostPart = h
		if port != "" {
			n, perr := strconv.Atoi(port)
			if perr != nil || n <= 0 || n > 65535 {
				return false
			}
		}
	}
	if hostPart == "" {
		return false
	}
	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}
	for _, c := range hostPart {
		if c < 0x20 || c == 0x7f || c == ' ' {
			return false
		}
	}
	return true
}

type permissiveKeyError struct {
	path string
	perm os.FileMode
}

func (e *permissiveKeyError) Error() string {
	return fmt.Sprintf("TLS key file %s has overly permissive permissions %o (recommended: 0600)", e.path, e.perm)
}

// validateTLSFiles checks that both files exist and are regular files, and
// returns a *permissiveKeyError when the key is group or world accessible.
func validateTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", f.kind, f.path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", f.kind, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return &permissiveKeyError{path: f.path, perm: info.Mode().Perm()}
		}
	}
	return nil
}

// waitForCert polls autocert until it has a certificate for host, the
// timeout passes, or ctx ends.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for cert for %q: %w", host, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
