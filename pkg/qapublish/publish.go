// Package qapublish pushes a generated qabundle.Bundle to a target
// GitHub repository path, one commit per bundle file. It is
// adapted from the teacher's pkg/platform/github collaborator commands
// — arbitrary-repo-command execution — narrowed to a single concern:
// committing bundle files.
package qapublish

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"

	gh "github.com/google/go-github/v60/github"

	"github.com/BimaPangestu28/greentic-qa/pkg/qabundle"
)

// Client wraps the GitHub API client with token authentication.
type Client struct {
	inner *gh.Client
}

// NewClient creates a GitHub API client authenticated with token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("qapublish: github token is required")
	}
	httpClient := &http.Client{Transport: &tokenTransport{token: token}}
	return &Client{inner: gh.NewClient(httpClient)}, nil
}

type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

// Target identifies where a Bundle should be committed.
type Target struct {
	Owner  string
	Repo   string
	Branch string // empty means the repository's default branch
	// BasePath is prepended to every file path in the bundle, e.g.
	// "generated-forms" commits forms/<id>.form.json under
	// generated-forms/<dir_name>/forms/<id>.form.json.
	BasePath string
}

// Result reports the outcome of publishing one bundle file.
type Result struct {
	Path      string
	CommitSHA string
	HTMLURL   string
	Created   bool // true if the file did not already exist
}

// PublishBundle commits every file in b to target, creating each file
// if absent or updating it in place (using its current blob SHA) if
// present. Returns one Result per file, in b.Files order; a failure on
// any file aborts the remaining commits and returns the partial
// results gathered so far alongside the error.
func (c *Client) PublishBundle(ctx context.Context, target Target, b qabundle.Bundle, message string) ([]Result, error) {
	results := make([]Result, 0, len(b.Files))

	for _, f := range b.Files {
		repoPath := bundleFilePath(target, b.DirName, f.Path)

		data, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
		if err != nil {
			return results, fmt.Errorf("qapublish: decode %q: %w", f.Path, err)
		}

		res, err := c.publishFile(ctx, target, repoPath, data, message)
		if err != nil {
			return results, fmt.Errorf("qapublish: committing %q: %w", repoPath, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func (c *Client) publishFile(ctx context.Context, target Target, repoPath string, data []byte, message string) (Result, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: target.Branch}
	existing, _, _, err := c.inner.Repositories.GetContents(ctx, target.Owner, target.Repo, repoPath, opts)

	commitMsg := message
	if commitMsg == "" {
		commitMsg = fmt.Sprintf("qacli: publish %s", repoPath)
	}

	req := &gh.RepositoryContentFileOptions{
		Message: &commitMsg,
		Content: data,
		Branch:  optionalBranch(target.Branch),
	}

	if err == nil && existing != nil {
		req.SHA = existing.SHA
		content, _, err := c.inner.Repositories.UpdateFile(ctx, target.Owner, target.Repo, repoPath, req)
		if err != nil {
			return Result{}, err
		}
		return resultFrom(repoPath, content, false), nil
	}

	content, _, createErr := c.inner.Repositories.CreateFile(ctx, target.Owner, target.Repo, repoPath, req)
	if createErr != nil {
		return Result{}, createErr
	}
	return resultFrom(repoPath, content, true), nil
}

func resultFrom(repoPath string, content *gh.RepositoryContentResponse, created bool) Result {
	r := Result{Path: repoPath, Created: created}
	if content != nil && content.Content != nil {
		r.HTMLURL = content.Content.GetHTMLURL()
	}
	if content != nil && content.Commit.SHA != nil {
		r.CommitSHA = *content.Commit.SHA
	}
	return r
}

// bundleFilePath joins a Target's base path, a bundle's directory
// name, and one file's path within that bundle into the repository
// path it should be committed at.
func bundleFilePath(target Target, dirName, filePath string) string {
	return path.Join(target.BasePath, dirName, filePath)
}

func optionalBranch(branch string) *string {
	if branch == "" {
		return nil
	}
	return &branch
}
