package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"rostersync/internal/daemon"
	"rostersync/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Rostersync", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.UptimeSeconds = status.UptimeSeconds
	resp.StorePath = status.StorePath
	resp.LockPath = status.LockPath
	resp.Total = status.Roster.Total
	resp.Resolved = status.Roster.Resolved
	resp.Unresolved = status.Roster.Unresolved
	resp.Scheduler = status.Scheduler
	resp.CachedTargets = status.CachedTargets
	return nil
}

func (s *service) Audit(req AuditRequest, resp *AuditResponse) error {
	report, err := s.daemon.Audit(s.ctx, req.Force)
	if err != nil {
		return err
	}
	resp.Total = report.Total
	resp.Sample = report.Sample
	resp.Emitted = report.Emitted
	return nil
}

func (s *service) Sweep(_ SweepRequest, resp *SweepResponse) error {
	s.log().Debug("sweep requested")
	result, err := s.daemon.Sweep(s.ctx)
	if err != nil {
		return err
	}
	resp.Linked = result.Linked
	resp.Ambiguous = result.Ambiguous
	resp.Unmatched = result.Unmatched
	return nil
}

func (s *service) Records(req RecordsRequest, resp *RecordsResponse) error {
	records, err := s.daemon.Records(s.ctx, req.UnresolvedOnly)
	if err != nil {
		return err
	}
	resp.Records = make([]Record, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		resp.Records = append(resp.Records, FromRecord(rec))
	}
	return nil
}

func (s *service) PutRecord(req PutRecordRequest, resp *PutRecordResponse) error {
	if req.Record.Handle == "" {
		return errors.New("record handle is required")
	}
	stored, err := s.daemon.PutRecord(s.ctx, req.Record.ToRecord())
	if err != nil {
		return err
	}
	resp.Record = FromRecord(stored)
	return nil
}

func (s *service) TestNotify(_ TestNotifyRequest, resp *TestNotifyResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC")
	return nil
}
