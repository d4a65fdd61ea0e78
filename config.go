package auth

import (
	"net/http"
	"time"
)

// Config carries the settings a host application provides when wiring the
// session core. Implementations usually sit on top of the app's own config
// loader.
type Config interface {
	GetBaseURL() string
	GetEmailDomain() string
	GetCredentialDir() string
	GetRequestTimeout() time.Duration
}

// SimpleConfig is a ready-made Config for hosts without their own loader.
type SimpleConfig struct {
	BaseURL        string        `json:"base_url"`
	EmailDomain    string        `json:"email_domain"`
	CredentialDir  string        `json:"credential_dir"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetBaseURL() string { return c.BaseURL }

func (c *SimpleConfig) GetEmailDomain() string {
	if c.EmailDomain == "" {
		return DefaultEmailDomain
	}
	return c.EmailDomain
}

func (c *SimpleConfig) GetCredentialDir() string { return c.CredentialDir }

func (c *SimpleConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return c.RequestTimeout
}

// New wires the whole session core from a Config: file credential store, HTTP
// client, and state machine. Hosts needing a different store or transport use
// the individual constructors instead.
func New(cfg Config, opts ...SessionOption) (*SessionStateMachine, *Client, error) {
	store, err := NewFileCredentialStore(cfg.GetCredentialDir())
	if err != nil {
		return nil, nil, err
	}

	client := NewClient(ClientConfig{
		BaseURL:     cfg.GetBaseURL(),
		TokenSource: store.Load,
		HTTPClient:  &http.Client{Timeout: cfg.GetRequestTimeout()},
	})

	opts = append([]SessionOption{WithEmailDomain(cfg.GetEmailDomain())}, opts...)
	sm := NewSessionStateMachine(client, store, opts...)

	return sm, client, nil
}
