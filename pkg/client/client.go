// Package client implements the TFTP client: a Connector for programmatic
// use plus the interactive command line on top of it.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ajtop/tftp/pkg/transfer"
	"github.com/ajtop/tftp/pkg/types"
	"github.com/ajtop/tftp/pkg/utils"
)

type Connector interface {
	Connect(addr string) error
	Get(ctx context.Context, filename string, dst io.Writer) error
	Put(ctx context.Context, filename string, src io.Reader) error
	SetTimeout(seconds uint)
	SetMode(mode types.Mode)
	SetTrace()
}

// Client downloads from and uploads to one remote server. Each transfer runs
// on a fresh socket, so each gets its own local transfer id. The destination
// for GET and the source for PUT are abstract; the caller owns any files.
type Client struct {
	l        *zap.SugaredLogger
	remote   net.Addr
	mode     types.Mode
	timeout  time.Duration
	numTries int
	trace    bool
}

func NewClient(l *zap.SugaredLogger, numTries uint) *Client {
	return &Client{
		l:        l,
		mode:     types.ModeOctet,
		timeout:  time.Duration(types.DefaultTimeout) * time.Second,
		numTries: int(numTries),
	}
}

func (c *Client) Connect(addr string) error {
	remote, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("error while resolving %s: %w", addr, err)
	}

	c.remote = remote

	return nil
}

func (c *Client) SetTimeout(seconds uint) {
	c.timeout = time.Duration(seconds) * time.Second
}

func (c *Client) SetMode(mode types.Mode) {
	c.mode = mode
}

func (c *Client) SetTrace() {
	c.trace = !c.trace
}

func (c *Client) newSession(ctx context.Context) (*transfer.Session, func(), error) {
	if c.remote == nil {
		return nil, nil, utils.ErrNotConnected
	}

	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, nil, fmt.Errorf("error while binding local socket: %w", err)
	}

	sess := transfer.NewSession(conn, c.remote, c.l,
		c.timeout, c.timeout, c.numTries, c.trace)

	// Cancellation closes the socket, which unblocks a pending receive.
	stopWatch := context.AfterFunc(ctx, func() {
		if err := sess.Close(); err != nil {
			c.l.Error(err.Error())
		}
	})

	cleanup := func() {
		stopWatch()

		if err := sess.Close(); err != nil {
			c.l.Error(err.Error())
		}
	}

	return sess, cleanup, nil
}

// Get pulls filename from the connected server into dst.
func (c *Client) Get(ctx context.Context, filename string, dst io.Writer) error {
	sess, cleanup, err := c.newSession(ctx)
	if err != nil {
		return err
	}

	defer cleanup()

	if err := sess.SendRequest(types.NewReadRequest(filename, c.mode)); err != nil {
		return c.surface(ctx, err)
	}

	return c.surface(ctx, sess.Receive(dst))
}

// Put pushes the contents of src to the connected server as filename.
func (c *Client) Put(ctx context.Context, filename string, src io.Reader) error {
	sess, cleanup, err := c.newSession(ctx)
	if err != nil {
		return err
	}

	defer cleanup()

	if err := sess.SendRequest(types.NewWriteRequest(filename, c.mode)); err != nil {
		return c.surface(ctx, err)
	}

	if err := sess.AwaitAck(0); err != nil {
		return c.surface(ctx, err)
	}

	return c.surface(ctx, sess.Send(src))
}

// surface prefers the context error when the transfer failed because it was
// cancelled.
func (c *Client) surface(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}
