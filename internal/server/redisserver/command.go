package redisserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/infra/buildinfo"
	"github.com/yndnr/snapback/internal/telemetry/logger"
)

// errQuit tells the connection loop to close after replying.
var errQuit = errors.New("quit")

type commandFunc func(ctx context.Context, w *Writer, args [][]byte) error

type command struct {
	arity int // exact argument count including the name; negative means at least -arity
	fn    commandFunc
}

func (s *Server) commands() map[string]command {
	return map[string]command{
		"PING":          {arity: -1, fn: s.cmdPing},
		"QUIT":          {arity: 1, fn: s.cmdQuit},
		"INFO":          {arity: -1, fn: s.cmdInfo},
		"USER.LIST":     {arity: 1, fn: s.cmdUserList},
		"USER.CREATE":   {arity: 3, fn: s.cmdUserCreate},
		"USER.UPDATE":   {arity: 3, fn: s.cmdUserUpdate},
		"USER.ROLLBACK": {arity: 2, fn: s.cmdUserRollback},
	}
}

// dispatch runs one command and writes its reply. It returns errQuit when
// the connection should close.
func (s *Server) dispatch(ctx context.Context, w *Writer, args [][]byte) error {
	name := normalizeCommandName(args[0])
	cmd, ok := s.cmds[name]
	if !ok {
		w.Error(fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(name)))
		s.record(name, "unknown")
		return nil
	}
	if (cmd.arity > 0 && len(args) != cmd.arity) || (cmd.arity < 0 && len(args) < -cmd.arity) {
		w.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
		s.record(name, "error")
		return nil
	}

	err := cmd.fn(ctx, w, args)
	switch {
	case err == nil:
		s.record(name, "ok")
	case errors.Is(err, errQuit):
		s.record(name, "ok")
		return errQuit
	default:
		w.Error(formatError(err))
		s.record(name, "error")
		if code := domain.GetErrorCode(err); code == "" || strings.Contains(code, "-5") {
			logger.L(ctx).Error("command failed", "command", name, "error", err)
		}
	}
	return nil
}

func (s *Server) record(name, result string) {
	if s.metrics != nil {
		s.metrics.RecordRequest("RESP", name, result)
	}
}

// formatError renders err as "ERR <code> <message>". Errors outside the
// domain are reported as internal errors without detail.
func formatError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Code + " " + de.Message
	}
	return "ERR " + domain.ErrInternalServer.Code + " " + domain.ErrInternalServer.Message
}

func (s *Server) cmdPing(_ context.Context, w *Writer, args [][]byte) error {
	switch len(args) {
	case 1:
		w.SimpleString("PONG")
	case 2:
		w.Bulk(args[1])
	default:
		return domain.ErrInvalidArgument.WithDetails("PING takes at most one argument")
	}
	return nil
}

func (s *Server) cmdQuit(_ context.Context, w *Writer, _ [][]byte) error {
	w.SimpleString("OK")
	return errQuit
}

func (s *Server) cmdInfo(ctx context.Context, w *Writer, _ [][]byte) error {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return err
	}
	info := buildinfo.Get()

	var b strings.Builder
	b.WriteString("# Server\r\n")
	fmt.Fprintf(&b, "version:%s\r\n", info.Version)
	fmt.Fprintf(&b, "commit:%s\r\n", info.Commit)
	fmt.Fprintf(&b, "go_version:%s\r\n", info.GoVersion)
	b.WriteString("# Store\r\n")
	fmt.Fprintf(&b, "users:%d\r\n", stats.Entities)
	fmt.Fprintf(&b, "pending_snapshots:%d\r\n", stats.PendingSnapshots)
	w.BulkString(b.String())
	return nil
}

func (s *Server) cmdUserList(ctx context.Context, w *Writer, _ [][]byte) error {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	w.ArrayHeader(len(users))
	for _, u := range users {
		w.ArrayHeader(2)
		w.BulkString(u.Email)
		w.BulkString(u.Name)
	}
	return nil
}

func (s *Server) cmdUserCreate(ctx context.Context, w *Writer, args [][]byte) error {
	if err := s.users.CreateUser(ctx, domain.NewUser(string(args[1]), string(args[2]))); err != nil {
		return err
	}
	w.SimpleString("OK")
	return nil
}

func (s *Server) cmdUserUpdate(ctx context.Context, w *Writer, args [][]byte) error {
	if err := s.users.UpdateUser(ctx, domain.NewUser(string(args[1]), string(args[2]))); err != nil {
		return err
	}
	w.SimpleString("OK")
	return nil
}

func (s *Server) cmdUserRollback(ctx context.Context, w *Writer, args [][]byte) error {
	if err := s.users.RollbackUser(ctx, string(args[1])); err != nil {
		return err
	}
	w.SimpleString("OK")
	return nil
}
