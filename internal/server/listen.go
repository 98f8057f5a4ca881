package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/and161185/metrsd/internal/config"
	"github.com/and161185/metrsd/internal/errs"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type endpoint struct {
	host    string
	network string
	address string
}

// Listen binds every host. All hosts are validated before the first bind,
// so an unknown scheme fails without opening anything. On a bind failure
// the listeners opened so far are closed.
func Listen(hosts []string) ([]net.Listener, error) {
	if len(hosts) == 0 {
		return nil, errs.Wrap(errs.ErrNoHosts, errs.KindConfig, "listen")
	}
	eps := make([]endpoint, 0, len(hosts))
	for _, h := range hosts {
		network, address, err := config.ParseHost(h)
		if err != nil {
			return nil, err
		}
		eps = append(eps, endpoint{host: h, network: network, address: address})
	}

	listeners := make([]net.Listener, 0, len(eps))
	for _, ep := range eps {
		if ep.network == "unix" {
			removeStaleSocket(ep.address)
		}
		l, err := net.Listen(ep.network, ep.address)
		if err != nil {
			for _, opened := range listeners {
				_ = opened.Close()
			}
			return nil, errs.Wrapf(err, errs.KindTransport, "bind %s", ep.host)
		}
		listeners = append(listeners, l)
	}
	return listeners, nil
}

func removeStaleSocket(path string) {
	fi, err := os.Lstat(path)
	if err != nil || fi.Mode()&os.ModeSocket == 0 {
		return
	}
	_ = os.Remove(path)
}

// Serve handles requests on every listener until ctx is cancelled or one
// of them fails. On shutdown the hub is closed first so streaming handlers
// return and the HTTP server can drain.
func (srv *Server) Serve(ctx context.Context, listeners []net.Listener) error {
	logger := srv.logger()
	httpSrv := &http.Server{
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		g.Go(func() error {
			logger.Infof("listening on %s://%s", l.Addr().Network(), l.Addr().String())
			if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrapf(err, errs.KindTransport, "serve %s", l.Addr())
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		srv.Hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
			return httpSrv.Close()
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// Run binds the configured hosts and serves until ctx is cancelled.
func (srv *Server) Run(ctx context.Context) error {
	listeners, err := Listen(srv.Config.Hosts)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, listeners)
}
