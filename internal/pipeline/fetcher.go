package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/util"
	"github.com/ppiankov/vouch/internal/worker"
)

const (
	// UserAgent identifies vouch to transcript hosts
	UserAgent = "vouch/0.1 (+https://github.com/ppiankov/vouch)"

	maxTranscriptBytes = 20 << 20
)

// ErrDisallowed is returned when robots.txt forbids fetching a transcript
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher downloads transcripts published at http(s) URLs
type Fetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	maxBytes   int64
	policy     worker.Policy
}

// NewFetcher creates a fetcher honoring robots.txt
func NewFetcher(timeout time.Duration, httpProxy, httpsProxy string) *Fetcher {
	client := util.NewHTTPClient(timeout, httpProxy, httpsProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	return &Fetcher{
		httpClient: client,
		robots:     util.NewRobotsChecker(UserAgent, client),
		maxBytes:   maxTranscriptBytes,
		policy: worker.Policy{
			MaxRetries:  2,
			BaseDelay:   time.Second,
			IsRetryable: llm.IsRetryable,
		},
	}
}

// Fetch downloads rawURL as a transcript file. Server errors and rate
// limiting are retried; other statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (model.TranscriptFile, error) {
	if !f.robots.IsAllowed(ctx, rawURL) {
		return model.TranscriptFile{}, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	return worker.Retry(ctx, f.policy, func(ctx context.Context) (model.TranscriptFile, error) {
		return f.fetch(ctx, rawURL)
	})
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (model.TranscriptFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.TranscriptFile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/plain,text/html,application/pdf,text/vtt;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.TranscriptFile{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return model.TranscriptFile{}, &llm.StatusError{Code: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return model.TranscriptFile{}, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	return model.TranscriptFile{
		Name:        transcriptName(resp.Request.URL.String(), contentType),
		ContentType: contentType,
		Data:        body,
	}, nil
}

// transcriptName derives a file name from the final URL, adding an
// extension from the content type when the path has none
func transcriptName(rawURL, contentType string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	name := path.Base(strings.Trim(parsed.Path, "/"))
	bare := path.Ext(name) == ""
	if name == "." || name == "" {
		name, bare = parsed.Hostname(), true
	}
	if bare {
		switch contentType {
		case "text/html":
			name += ".html"
		case "application/pdf":
			name += ".pdf"
		case "text/vtt":
			name += ".vtt"
		default:
			name += ".txt"
		}
	}
	return name
}
