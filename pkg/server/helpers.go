package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/ajtop/tftp/pkg/transfer"
	"github.com/ajtop/tftp/pkg/types"
)

// resolvePath maps a requested filename into the server root. Requests that
// escape the root are rejected so a client can not read or write outside the
// served directory.
func (s *Server) resolvePath(filename string) (string, error) {
	root := filepath.Clean(s.root)
	p := filepath.Join(root, filename)

	if p != root && !strings.HasPrefix(p, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("request for %q escapes the tftp root", filename)
	}

	return p, nil
}

// serveRead answers an accepted RRQ by streaming the requested file through
// the session. Failures that the requester should see become error packets.
func (s *Server) serveRead(sess *transfer.Session, filename string) (err error) {
	p, errPath := s.resolvePath(filename)
	if errPath != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return errPath
	}

	f, errOpen := os.Open(p)
	if errOpen != nil {
		if os.IsNotExist(errOpen) {
			sess.SendError(types.ErrFileNotFound, fmt.Sprintf("%s: file not found", filename))
		} else {
			sess.SendError(types.ErrAccessViolation, "access violation")
		}

		return fmt.Errorf("error while opening file: %w", errOpen)
	}

	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	return sess.Send(f)
}

// acceptWrite answers an accepted WRQ: refuse existing files, create the
// target, acknowledge block 0 and receive the transfer into it.
func (s *Server) acceptWrite(sess *transfer.Session, filename string) (err error) {
	p, errPath := s.resolvePath(filename)
	if errPath != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return errPath
	}

	if _, errStat := os.Stat(p); errStat == nil {
		sess.SendError(types.ErrFileAlreadyExists, fmt.Sprintf("%s: file already exists", filename))

		return fmt.Errorf("file %s already exists", p)
	}

	f, errCreate := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errCreate != nil {
		sess.SendError(types.ErrAccessViolation, "access violation")

		return fmt.Errorf("error while creating file: %w", errCreate)
	}

	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := sess.AcknowledgeWrq(); err != nil {
		return err
	}

	return sess.Receive(f)
}

type control func(network, address string, c syscall.RawConn) error

// reusePort lets a restarted server rebind the well-known port while old
// sessions are still draining.
func reusePort() control {
	return func(network, address string, c syscall.RawConn) error {
		var opErr error

		err := c.Control(func(fd uintptr) {
			opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		})
		if err != nil {
			return err
		}

		return opErr
	}
}
