package auth

import (
	"fmt"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/kilianp07/livetrack/core/stream"
)

// Conf represents the configuration needed for authentication. Method is
// "static" for a fixed bearer token or "oauth2" for the client credentials
// grant against AuthURL.
type Conf struct {
	Method       string   `json:"method"`
	Token        string   `json:"token"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURL      string   `json:"auth_url"`
	Scopes       []string `json:"scopes"`
}

// SetDefaults applies sane defaults.
func (c *Conf) SetDefaults() {
	if c.Method == "" {
		c.Method = "static"
	}
}

// Validate checks the fields required by Method.
func (c Conf) Validate() error {
	switch c.Method {
	case "", "static":
		return nil
	case "oauth2":
		if c.AuthURL == "" || c.ClientID == "" {
			return fmt.Errorf("auth: oauth2 requires auth_url and client_id")
		}
		return nil
	default:
		return fmt.Errorf("auth: unknown method %q", c.Method)
	}
}

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
		Scopes:       c.Scopes,
	}
}

// New returns the credentials provider selected by conf.
func New(conf Conf) (stream.CredentialsProvider, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Method == "oauth2" {
		return NewClientCred(conf), nil
	}
	return NewStatic(conf.Token), nil
}
