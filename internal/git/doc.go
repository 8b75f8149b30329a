// Package git wraps go-git for the two things the content pipeline needs from
// version control: shallow, single-branch clones of content repositories into
// scratch space, and per-file commit history used as a last-modified signal.
//
// Clone failures are classified (auth, not found, network) so callers can
// decide between retrying and aborting the run.
package git
