package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/normalize"
)

// Source is a raw document and the name it was read from
type Source struct {
	Name string
	Data []byte
}

// Format returns the format sniffed from the source name and content
func (s *Source) Format() normalize.Format {
	return normalize.SniffFormat(s.Name, s.Data)
}

// Reader fetches documents from a local file path or an HTTP(S) URL
type Reader struct {
	Client *http.Client
}

// NewReader creates a reader whose HTTP requests time out after timeout
func NewReader(timeout time.Duration) *Reader {
	return &Reader{Client: &http.Client{Timeout: timeout}}
}

// Read fetches input
func (r *Reader) Read(ctx context.Context, input string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	var (
		location *url.URL
		read     openapi3.ReadFromURIFunc
		name     = input
	)
	// Try to parse as URL; if it looks like http(s), fetch via URL
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		location = u
		read = openapi3.ReadFromHTTP(client)
		name = path.Base(u.Path)
	} else {
		// Fallback to reading from filesystem path
		location = &url.URL{Path: input}
		read = openapi3.ReadFromFile
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	data, err := read(loader, location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	return &Source{Name: name, Data: data}, nil
}
