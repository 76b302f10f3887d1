package git

import (
	"strings"

	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// authFor builds the transport auth for one call. Only HTTP(S) remotes get basic auth;
// other schemes use the transport default (ssh agent, local files).
func (c Config) authFor(url string, creds Credentials) transport.AuthMethod {
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return nil
	}

	if creds.IsZero() {
		creds = Credentials{
			Username: c.Auth.HTTPS.DefaultUsername,
			Secret:   c.Auth.HTTPS.DefaultToken,
		}
	}
	if creds.IsZero() {
		return nil
	}

	return &http.BasicAuth{
		Username: creds.Username,
		Password: creds.Secret,
	}
}
