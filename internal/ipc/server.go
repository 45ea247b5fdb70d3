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
	"time"

	"log/slog"

	"mural/internal/daemon"
	"mural/internal/logging"
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

// NewServer configures the IPC server at the given socket path. The
// shutdown function, when non-nil, is invoked after a Stop request so
// the hosting process can exit.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
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
	srv := &service{daemon: d, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Mural", srv); err != nil {
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
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
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.CycleActive = status.Workflow.CycleActive
	resp.Stitch = status.Workflow.Stitch
	resp.PollSeconds = int(status.Workflow.PollInterval / time.Second)
	if !status.Workflow.NextRunAt.IsZero() {
		resp.NextRunAt = status.Workflow.NextRunAt.Format(time.RFC3339)
	}
	resp.LastCycleID = status.Workflow.LastCycleID
	resp.LastState = status.Workflow.LastState
	resp.LastOutcome = status.Workflow.LastOutcome
	resp.LastCommitted = status.Workflow.LastCommitted
	resp.LastError = status.Workflow.LastError
	if !status.Workflow.LastFinished.IsZero() {
		resp.LastFinished = status.Workflow.LastFinished.Format(time.RFC3339)
	}
	resp.Monitors = status.Monitors
	resp.LedgerPath = status.LedgerPath
	resp.RunDBPath = status.RunDBPath
	resp.LockPath = status.LockPath
	return nil
}

func (s *service) RunNow(_ RunNowRequest, resp *RunNowResponse) error {
	s.log().Debug("manual cycle requested")
	if s.daemon.RunNow() {
		resp.Accepted = true
		resp.Message = "cycle triggered"
		return nil
	}
	resp.Accepted = false
	resp.Message = "a cycle request is already pending"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.Stop()
	resp.Stopped = true
	if s.shutdown != nil {
		s.shutdown()
	}
	return nil
}

func (s *service) ToggleStitch(_ ToggleStitchRequest, resp *ToggleStitchResponse) error {
	resp.Stitch = s.daemon.ToggleStitch()
	s.log().Info("stitch mode toggled", logging.Bool("stitch", resp.Stitch))
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	runs, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunRecord, 0, len(runs))
	for _, run := range runs {
		record := RunRecord{
			CycleID:    run.CycleID,
			Trigger:    run.Trigger,
			Status:     run.Status,
			Outcome:    run.Outcome,
			Candidates: run.Candidates,
			Accepted:   run.Accepted,
			Committed:  run.Committed,
			Updated:    run.Updated,
			Stitched:   run.Stitched,
			Error:      run.Error,
		}
		if !run.StartedAt.IsZero() {
			record.StartedAt = run.StartedAt.Format(time.RFC3339)
		}
		if !run.FinishedAt.IsZero() {
			record.FinishedAt = run.FinishedAt.Format(time.RFC3339)
		}
		resp.Runs = append(resp.Runs, record)
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
