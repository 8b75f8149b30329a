package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// CloneRequest describes one clone into a destination directory.
type CloneRequest struct {
	URL    string
	Branch string
	Dest   string
}

// CloneResult reports where a repository landed and at which commit.
type CloneResult struct {
	Path   string
	Commit string
}

// Client performs clones with a fixed depth and optional authentication.
type Client struct {
	depth    int
	auth     transport.AuthMethod
	progress io.Writer
}

// Option customises a Client.
type Option func(*Client)

// WithDepth sets the clone depth; 0 clones full history.
func WithDepth(depth int) Option { return func(c *Client) { c.depth = depth } }

// WithAuth sets the transport authentication used for every clone.
func WithAuth(auth transport.AuthMethod) Option { return func(c *Client) { c.auth = auth } }

// WithProgress streams go-git progress output to w.
func WithProgress(w io.Writer) Option { return func(c *Client) { c.progress = w } }

// NewClient creates a new Git client. The default is a shallow (depth 1) clone.
func NewClient(opts ...Option) *Client {
	c := &Client{depth: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones req.URL at req.Branch into req.Dest, replacing anything already there.
func (c *Client) Clone(ctx context.Context, req CloneRequest) (CloneResult, error) {
	slog.Debug("Cloning repository", logfields.Repository(req.URL), logfields.Branch(req.Branch), logfields.Path(req.Dest))
	if err := os.RemoveAll(req.Dest); err != nil {
		return CloneResult{}, fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:          req.URL,
		Auth:         c.auth,
		Progress:     c.progress,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if req.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(req.Branch)
	}
	if c.depth > 0 {
		opts.Depth = c.depth
	}

	repository, err := git.PlainCloneContext(ctx, req.Dest, false, opts)
	if err != nil {
		_ = os.RemoveAll(req.Dest)
		return CloneResult{}, ClassifyGitError(err, "clone", req.URL)
	}

	result := CloneResult{Path: req.Dest}
	if ref, herr := repository.Head(); herr == nil {
		result.Commit = ref.Hash().String()
		slog.Info("Repository cloned", logfields.Repository(req.URL), logfields.Branch(req.Branch), slog.String("commit", result.Commit[:8]))
	} else {
		slog.Info("Repository cloned", logfields.Repository(req.URL), logfields.Branch(req.Branch))
	}
	return result, nil
}
