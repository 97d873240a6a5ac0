// Package skygen turns OpenAPI v3 documents into the intermediate
// representation used to render Rust client crates.
//
// Quick Start:
//
//	import "github.com/cloudflavor/skygen"
//
//	// Write the IR of a remote document as JSON
//	err := skygen.Generate(ctx, os.Stdout, skygen.Options{
//		Spec:   "https://example.com/openapi.yaml",
//		Format: "json",
//	})
//
// For finer control, see the generator, normalize and emit packages.
package skygen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/config"
	"github.com/cloudflavor/skygen/pkg/emit"
	"github.com/cloudflavor/skygen/pkg/generator"
	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/normalize"
	"github.com/cloudflavor/skygen/pkg/openapi"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

// Options configures a run
type Options struct {
	// Spec is a file path or http(s) URL
	Spec string
	// Format names the emitter, "json" or "yaml"
	Format           string
	IncludeTags      []string
	ExcludeTags      []string
	SkipPlaceholders []string
	MaxDepth         int
	Parallelism      int
	// Timeout bounds fetching the document; 0 means no timeout
	Timeout time.Duration
	Project emit.Project
	Logger  *slog.Logger
}

// OptionsFromConfig maps a loaded configuration onto Options
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Spec:             cfg.Spec,
		Format:           cfg.Format,
		IncludeTags:      cfg.IncludeTags,
		ExcludeTags:      cfg.ExcludeTags,
		SkipPlaceholders: cfg.SkipPlaceholders,
		MaxDepth:         cfg.MaxDepth,
		Parallelism:      cfg.Parallelism,
		Timeout:          cfg.Timeout,
		Project: emit.Project{
			Name:        cfg.Project.Name,
			Version:     cfg.Project.Version,
			Description: cfg.Project.Description,
			Authors:     cfg.Project.Authors,
			Keywords:    cfg.Project.Keywords,
			APIURL:      cfg.Project.APIURL,
		},
		Logger: logger,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Result is the outcome of Build
type Result struct {
	Project emit.Project
	Bundle  *ir.Bundle
}

// Load reads and normalizes the document named by opts.Spec
func Load(ctx context.Context, opts Options) (*normalize.Document, error) {
	logger := opts.logger()
	src, err := openapi.NewReader(opts.Timeout).Read(ctx, opts.Spec)
	if err != nil {
		return nil, err
	}
	doc, err := (&normalize.Normalizer{Logger: logger}).Normalize(src.Data, src.Format())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", opts.Spec, err)
	}
	logger.Debug("document loaded", "spec", opts.Spec, "format", doc.Format, "salvaged", doc.Salvaged)
	return doc, nil
}

// Build loads the document and synthesizes its IR
func Build(ctx context.Context, opts Options) (*Result, error) {
	canonical, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	doc, err := openapi.Decode(canonical)
	if err != nil {
		return nil, err
	}

	bundle, err := generator.Generate(ctx, doc, generator.Options{
		Logger:      opts.logger(),
		Parallelism: opts.Parallelism,
		MaxDepth:    opts.MaxDepth,
		Skip:        opts.SkipPlaceholders,
		IncludeTags: opts.IncludeTags,
		ExcludeTags: opts.ExcludeTags,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Project: projectFor(doc, opts.Project).Normalize(opts.logger()), Bundle: bundle}, nil
}

// projectFor fills unset project metadata from the document's info and
// servers sections
func projectFor(doc *openapi3.T, p emit.Project) emit.Project {
	if doc.Info != nil {
		if p.Name == "" {
			p.Name = doc.Info.Title
		}
		if p.Version == "" {
			p.Version = doc.Info.Version
		}
		if p.Description == "" {
			p.Description = doc.Info.Description
		}
	}
	if p.APIURL == "" && len(doc.Servers) > 0 && doc.Servers[0] != nil {
		p.APIURL = doc.Servers[0].URL
	}
	return p
}

// Generate builds the IR and writes it with the emitter named by
// opts.Format
func Generate(ctx context.Context, w io.Writer, opts Options) error {
	format := opts.Format
	if format == "" {
		format = "json"
	}
	emitter, err := emit.DefaultRegistry().Lookup(format)
	if err != nil {
		return err
	}
	res, err := Build(ctx, opts)
	if err != nil {
		return err
	}
	return emitter.Emit(w, res.Project, res.Bundle)
}

// Resolve loads the document and inlines every local reference. Recursive
// references are left in place where they point back into themselves.
func Resolve(ctx context.Context, opts Options) (map[string]any, error) {
	canonical, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return resolver.NewDocumentResolver(canonical, opts.MaxDepth).Resolve()
}

// Validate checks that the document parses, decodes and that its
// references resolve without alias loops. Recursive schemas are valid.
// With strict set the OpenAPI rules are checked too.
func Validate(ctx context.Context, opts Options, strict bool) error {
	canonical, err := Load(ctx, opts)
	if err != nil {
		return err
	}
	if _, err := openapi.Decode(canonical); err != nil {
		return err
	}
	if err := resolver.NewDocumentResolver(canonical, opts.MaxDepth).Check(); err != nil {
		return err
	}
	if strict {
		return openapi.Validate(ctx, canonical)
	}
	return nil
}
