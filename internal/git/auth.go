package git

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenEnvVar holds an optional access token used for HTTPS clones of private repositories.
const TokenEnvVar = "CONTENTBUILDER_GIT_TOKEN"

// AuthFromEnv returns token authentication when TokenEnvVar is set, nil otherwise.
func AuthFromEnv() transport.AuthMethod {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil
	}
	// GitHub/GitLab accept any non-empty username with a token password.
	return &http.BasicAuth{Username: "token", Password: token}
}
