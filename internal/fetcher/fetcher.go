// Package fetcher retrieves a single source page with SSRF defenses: the
// target host is validated before any connection and again on every redirect
// hop, since a redirect can point at an address the first check never saw.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Kind classifies a fetch failure.
type Kind string

// Failure kinds, in validation order.
const (
	KindInvalidURL             Kind = "INVALID_URL"
	KindUnresolvedHost         Kind = "UNRESOLVED_HOST"
	KindDomainNotAllowlisted   Kind = "DOMAIN_NOT_ALLOWLISTED"
	KindPrivateAddress         Kind = "PRIVATE_ADDRESS"
	KindTransport              Kind = "TRANSPORT"
	KindHTTPError              Kind = "HTTP_ERROR"
	KindUnsupportedContentType Kind = "UNSUPPORTED_CONTENT_TYPE"
	KindPayloadTooLarge        Kind = "PAYLOAD_TOO_LARGE"
)

// Error is a classified fetch failure. The pipeline surfaces its message in
// the ingestion response instead of aborting.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.err }

func failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Resolver resolves hostnames. net.DefaultResolver satisfies it; tests
// substitute a stub so validation ordering can be exercised without DNS.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Options configures a Fetcher.
type Options struct {
	// Allowlist is the set of permitted domains, matched exactly or as a
	// parent domain. Empty means nothing is permitted.
	Allowlist []string
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Resolver  Resolver
	// PerHost throttles repeat fetches against the same host.
	PerHost rate.Limit
}

// Result is one successful page retrieval.
type Result struct {
	RequestedURL string
	FinalURL     string
	Status       int
	Body         []byte
	ContentHash  string
}

var privateNets = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return true
	}
	for _, n := range privateNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Fetcher retrieves pages within the configured safety envelope.
type Fetcher struct {
	opts     Options
	client   *http.Client
	resolver Resolver

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 1_500_000
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ManuIDBot/1.0 (+procurement-intelligence)"
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.PerHost == 0 {
		opts.PerHost = rate.Every(time.Second)
	}

	f := &Fetcher{
		opts:     opts,
		resolver: opts.Resolver,
		limiters: make(map[string]*rate.Limiter),
	}
	f.client = &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return failf(KindTransport, "Too many redirects")
			}
			return f.validateTarget(req.Context(), req.URL)
		},
	}
	return f
}

// Fetch retrieves one URL. Validation order: scheme, hostname presence, DNS
// resolution, allowlist membership, private-range check of every resolved
// address. The same checks run again on every redirect hop and on the final
// host before the response is accepted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, failf(KindInvalidURL, "Invalid URL: %v", err)
	}
	if err := f.validateTarget(ctx, parsed); err != nil {
		return nil, err
	}

	if err := f.limiter(parsed.Hostname()).Wait(ctx); err != nil {
		return nil, failf(KindTransport, "Fetch canceled while waiting for rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, failf(KindInvalidURL, "Invalid URL: %v", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		// CheckRedirect failures arrive wrapped in a *url.Error.
		var fe *Error
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &Error{Kind: KindTransport, msg: fmt.Sprintf("Request failed: %v", err), err: err}
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL
	if err := f.validateTarget(ctx, finalURL); err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, failf(KindHTTPError, "Source returned HTTP %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		if contentType == "" {
			contentType = "unknown"
		}
		return nil, failf(KindUnsupportedContentType, "Unsupported content-type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, msg: fmt.Sprintf("Reading response failed: %v", err), err: err}
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return nil, failf(KindPayloadTooLarge, "HTML payload exceeds the configured size cap")
	}

	sum := sha256.Sum256(body)
	result := &Result{
		RequestedURL: rawURL,
		FinalURL:     finalURL.String(),
		Status:       resp.StatusCode,
		Body:         body,
		ContentHash:  hex.EncodeToString(sum[:]),
	}

	zap.L().Debug("fetcher: retrieved page",
		zap.String("url", rawURL),
		zap.String("final_url", result.FinalURL),
		zap.Int("status", result.Status),
		zap.Int("bytes", len(body)),
	)
	return result, nil
}

// validateTarget runs the pre-connection safety checks against one URL.
func (f *Fetcher) validateTarget(ctx context.Context, u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return failf(KindInvalidURL, "Only HTTP/HTTPS URLs are allowed")
	}
	host := u.Hostname()
	if host == "" {
		return failf(KindInvalidURL, "URL hostname is missing")
	}

	addrs, err := f.resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return failf(KindUnresolvedHost, "Could not resolve hostname: %s", host)
	}

	if !f.domainAllowed(host) {
		return failf(KindDomainNotAllowlisted,
			"Domain is not in the scrape allowlist. Add it in env/config before ingestion.")
	}

	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return failf(KindPrivateAddress, "Private or local addresses are blocked for scraping")
		}
	}
	return nil
}

func (f *Fetcher) domainAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, allowed := range f.opts.Allowlist {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.PerHost, 1)
		f.limiters[host] = lim
	}
	return lim
}
