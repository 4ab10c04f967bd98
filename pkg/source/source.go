// Package source describes where a document's bytes come from: an uploaded
// local file or a remote URL. Consumers branch on Kind explicitly.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Kind tags the variant held by a Source.
type Kind int

const (
	KindNone Kind = iota
	KindLocal
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "none"
	}
}

var (
	// ErrEmpty indicates a zero Source or an empty payload.
	ErrEmpty = errors.New("document source is empty")
	// ErrInvalidURL indicates a remote source whose URL is not absolute http(s).
	ErrInvalidURL = errors.New("invalid document url")
	// ErrFetch indicates a remote source could not be retrieved.
	ErrFetch = errors.New("document fetch failed")
	// ErrTooLarge indicates a remote document larger than the source's limit.
	ErrTooLarge = errors.New("document exceeds maximum size")
	// ErrForbiddenHost indicates a remote URL resolving to a non-public address.
	ErrForbiddenHost = errors.New("document url resolves to a non-public address")
	// ErrUnreadable indicates the document's page count could not be determined.
	ErrUnreadable = errors.New("document page count could not be determined")
)

// Source is either Local(bytes) or Remote(url).
type Source struct {
	kind  Kind
	data  []byte
	url   string
	limit int64
}

// Local wraps document bytes already held in memory.
func Local(data []byte) Source {
	return Source{kind: KindLocal, data: data}
}

// Remote refers to a document reachable at rawURL.
func Remote(rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return Source{kind: KindRemote, url: u.String()}, nil
}

// Kind reports which variant s holds.
func (s Source) Kind() Kind {
	return s.kind
}

// URL returns the remote URL, or "" for local sources.
func (s Source) URL() string {
	return s.url
}

// Limit caps how many bytes Load reads from a remote source.
// Zero or less leaves it unbounded.
func (s Source) Limit(n int64) Source {
	s.limit = n
	return s
}

// Load returns the document bytes, fetching remote sources with client.
func (s Source) Load(ctx context.Context, client *http.Client) ([]byte, error) {
	switch s.kind {
	case KindLocal:
		if len(s.data) == 0 {
			return nil, ErrEmpty
		}
		return s.data, nil
	case KindRemote:
		return fetch(ctx, client, s.url, s.limit)
	default:
		return nil, ErrEmpty
	}
}

// PageCount loads the document and counts its pages with pdfcpu.
func (s Source) PageCount(ctx context.Context, client *http.Client) (int, error) {
	data, err := s.Load(ctx, client)
	if err != nil {
		return 0, err
	}
	return CountPages(data)
}

// CountPages counts the pages of a PDF held in memory.
func CountPages(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if n <= 0 {
		return 0, ErrUnreadable
	}
	return n, nil
}

func fetch(ctx context.Context, client *http.Client, rawURL string, limit int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, rawURL, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if limit > 0 {
		if resp.ContentLength > limit {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, rawURL, resp.ContentLength)
		}
		body = io.LimitReader(resp.Body, limit+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, limit)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// NewClient returns an http.Client for fetching remote sources. Unless
// allowPrivate is set, every connection, redirects included, is refused
// when the resolved address is loopback, private, link-local, multicast
// or unspecified. Proxies are not used.
func NewClient(timeout time.Duration, allowPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = refuseNonPublic
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{Timeout: timeout, Transport: transport}
}

func refuseNonPublic(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	if !Public(addr) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	return nil
}

// Public reports whether addr is a globally routable unicast address.
func Public(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}
