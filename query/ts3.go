package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/multiplay/go-ts3"
)

// defaultDialTimeout bounds connection establishment when the caller's
// context carries no deadline.
const defaultDialTimeout = 10 * time.Second

// DialTS3 is the production Dialer. It opens a ServerQuery connection with
// github.com/multiplay/go-ts3 and wraps it in the Conn interface.
func DialTS3(ctx context.Context, creds Credentials) (Conn, error) {
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	client, err := ts3.NewClient(creds.Addr(), ts3.Timeout(timeout))
	if err != nil {
		return nil, &ConnectionError{Addr: creds.Addr(), Err: err}
	}
	return &ts3Conn{client: client}, nil
}

type ts3Conn struct {
	client *ts3.Client
}

var _ Conn = (*ts3Conn)(nil)

func (c *ts3Conn) Use(serverID int) error {
	return mapTS3Error(c.client.Use(serverID))
}

func (c *ts3Conn) Login(user, password string) error {
	return mapTS3Error(c.client.Login(user, password))
}

func (c *ts3Conn) TokenUse(token string) error {
	_, err := c.client.ExecCmd(ts3.NewCmd("tokenuse").WithArgs(ts3.NewArg("token", token)))
	return mapTS3Error(err)
}

func (c *ts3Conn) Whoami() (string, error) {
	lines, err := c.client.ExecCmd(ts3.NewCmd("whoami"))
	if err != nil {
		return "", mapTS3Error(err)
	}
	return strings.Join(lines, " "), nil
}

func (c *ts3Conn) Exec(cmd *Command, out any) ([]string, error) {
	tc := ts3.NewCmd(cmd.Name)
	for _, a := range cmd.Args {
		tc = tc.WithArgs(ts3.NewArg(a.Key, a.Value))
	}
	if len(cmd.Options) > 0 {
		tc = tc.WithOptions(cmd.Options...)
	}
	if out != nil {
		tc = tc.WithResponse(out)
	}
	lines, err := c.client.ExecCmd(tc)
	return lines, mapTS3Error(err)
}

func (c *ts3Conn) Close() error {
	return c.client.Close()
}

// mapTS3Error converts the library's error type into RemoteError so callers
// can branch on the server's status id without importing go-ts3.
func mapTS3Error(err error) error {
	if err == nil {
		return nil
	}
	var terr *ts3.Error
	if errors.As(err, &terr) {
		return &RemoteError{ID: terr.ID, Msg: terr.Msg}
	}
	return err
}
