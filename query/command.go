package query

import "context"

// Arg is a single key/value pair on a ServerQuery command.
type Arg struct {
	Key   string
	Value any
}

// Command is a ServerQuery command under construction. Build with NewCommand
// and the With* chain, then hand to a Session or Conn for execution.
type Command struct {
	Name    string
	Args    []Arg
	Options []string
}

// NewCommand starts building a command with the given name.
func NewCommand(name string) *Command {
	return &Command{Name: name}
}

// WithArg appends a key/value argument.
func (c *Command) WithArg(key string, value any) *Command {
	c.Args = append(c.Args, Arg{Key: key, Value: value})
	return c
}

// WithOption appends a dash-prefixed option flag, e.g. "-uid".
func (c *Command) WithOption(opt string) *Command {
	c.Options = append(c.Options, opt)
	return c
}

// Conn is a live ServerQuery connection. Implementations are not required to
// be safe for concurrent use; the Session serializes access.
type Conn interface {
	// Use selects the virtual server to operate on.
	Use(serverID int) error

	// Login authenticates with a query login name and password.
	Login(user, password string) error

	// TokenUse redeems a privilege key on the current connection.
	TokenUse(token string) error

	// Whoami returns a short description of the connection's identity,
	// used as a post-auth smoke test.
	Whoami() (string, error)

	// Exec runs a command and returns the raw response lines. When out is
	// non-nil the response records are also decoded into it (a pointer to
	// a struct or slice of structs tagged with `ms` field names).
	Exec(cmd *Command, out any) ([]string, error)

	Close() error
}

// Dialer opens a Conn for the given credentials. The context bounds the dial.
type Dialer func(ctx context.Context, creds Credentials) (Conn, error)
