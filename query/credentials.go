package query

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joeshaw/envdecode"
)

// Default endpoint values applied when neither the environment nor a
// per-call credentials object supplies them.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 10011
	DefaultUser     = "serveradmin"
	DefaultServerID = 1
)

// FlexInt is an int that also accepts a numeric JSON string. Tool callers
// routinely quote ports and IDs, so decoding stays lenient.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a numeric value: %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Credentials identifies a ServerQuery endpoint and the principal used to
// authenticate against it. The zero value is not usable directly; resolve it
// through FromEnv or Normalize first.
type Credentials struct {
	Host     string  `env:"TEAMSPEAK_HOST,default=localhost" json:"host,omitempty" jsonschema:"description=Query host name or address"`
	Port     FlexInt `env:"TEAMSPEAK_PORT,default=10011" json:"port,omitempty" jsonschema:"description=ServerQuery port"`
	User     string  `env:"TEAMSPEAK_USER,default=serveradmin" json:"user,omitempty" jsonschema:"description=Query login name"`
	Password string  `env:"TEAMSPEAK_PASSWORD" json:"password,omitempty" jsonschema:"description=Query login password"`
	Token    string  `env:"TEAMSPEAK_TOKEN" json:"token,omitempty" jsonschema:"description=Privilege key redeemed when password login fails"`
	ServerID FlexInt `env:"TEAMSPEAK_SERVER_ID,default=1" json:"server_id,omitempty" jsonschema:"description=Virtual server ID to select"`
}

// FromEnv resolves credentials from TEAMSPEAK_* environment variables,
// falling back to the documented defaults.
func FromEnv() (Credentials, error) {
	var c Credentials
	if err := envdecode.Decode(&c); err != nil {
		return Credentials{}, fmt.Errorf("decode environment: %w", err)
	}
	return c, nil
}

// Merge fills any unset fields of c from base. Per-call credential objects
// usually carry only the fields that differ, and the rest fall back to the
// configured defaults (environment, then built-ins).
func (c Credentials) Merge(base Credentials) Credentials {
	if c.Host == "" {
		c.Host = base.Host
	}
	if c.Port == 0 {
		c.Port = base.Port
	}
	if c.User == "" {
		c.User = base.User
	}
	if c.Password == "" {
		c.Password = base.Password
	}
	if c.Token == "" {
		c.Token = base.Token
	}
	if c.ServerID == 0 {
		c.ServerID = base.ServerID
	}
	return c
}

// Normalize fills any unset fields with the documented defaults.
func (c Credentials) Normalize() Credentials {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.User == "" {
		c.User = DefaultUser
	}
	if c.ServerID == 0 {
		c.ServerID = DefaultServerID
	}
	return c
}

// Addr returns the host:port dial address.
func (c Credentials) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, int(c.Port))
}
