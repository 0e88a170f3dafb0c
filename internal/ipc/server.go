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

	"overdub/internal/api"
	"overdub/internal/daemon"
	"overdub/internal/logging"
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
	if err := rpcServer.RegisterName("Overdub", srv); err != nil {
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
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun overdub stop"))
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

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	workflowStatus := api.FromStatusSummary(status.Workflow)

	resp.Running = status.Running
	resp.PID = status.PID
	resp.JobDBPath = status.JobDBPath
	resp.LockPath = status.LockFilePath
	resp.ActiveJobs = workflowStatus.ActiveJobs
	resp.JobStats = workflowStatus.JobStats
	resp.LastError = workflowStatus.LastError
	resp.LastJob = workflowStatus.LastJob
	resp.StageHealth = workflowStatus.StageHealth
	return nil
}

func (s *service) JobSubmit(req JobSubmitRequest, resp *JobSubmitResponse) error {
	s.log().Debug("job submit requested")
	item, err := s.daemon.Service().Submit(s.ctx, req.Submit)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("job submitted via IPC",
		logging.String(logging.FieldEventType, "job_submit"),
		logging.Int64(logging.FieldJobID, item.ID))
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	items, err := s.daemon.Service().List(s.ctx, req.Statuses...)
	if err != nil {
		return err
	}
	resp.Items = items
	return nil
}

func (s *service) JobDescribe(req JobDescribeRequest, resp *JobDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid job id %d", req.ID)
	}
	item, err := s.daemon.Service().Describe(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = *item
	return nil
}

func (s *service) JobDecide(req JobDecideRequest, resp *JobDecideResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid job id %d", req.ID)
	}
	s.log().Debug("job decision requested", logging.Int64(logging.FieldJobID, req.ID))
	item, err := s.daemon.Service().Decide(s.ctx, req.ID, req.Decision)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("job decision delivered",
		logging.String(logging.FieldEventType, "job_decide"),
		logging.Int64(logging.FieldJobID, req.ID),
		logging.Bool("approved", req.Decision.Approved))
	return nil
}

func (s *service) JobRetry(req JobRetryRequest, resp *JobRetryResponse) error {
	s.log().Debug("job retry requested", logging.Int("job_count", len(req.IDs)))
	updated, err := s.daemon.Service().Retry(s.ctx, req.IDs...)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("jobs retried",
		logging.String(logging.FieldEventType, "job_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) JobStats(_ JobStatsRequest, resp *JobStatsResponse) error {
	counts, err := s.daemon.Service().Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Counts = counts
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
