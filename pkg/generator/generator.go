// Package generator turns a decoded OpenAPI document into the IR bundle:
// operations grouped into modules of client functions, and one model per
// component schema.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/cloudflavor/skygen/pkg/generator/rust"
	"github.com/cloudflavor/skygen/pkg/infer"
	"github.com/cloudflavor/skygen/pkg/ir"
)

// Options configures a generation run
type Options struct {
	Logger *slog.Logger
	// Parallelism bounds the number of models and modules synthesized at
	// once; values below 1 mean sequential.
	Parallelism int
	// MaxDepth caps reference chains; 0 disables the limit
	MaxDepth int
	// Skip names placeholder components ignored in compositions
	Skip        []string
	IncludeTags []string
	ExcludeTags []string
}

// Generate builds the bundle for doc. Any resolution error aborts the run
// and no partial bundle is returned.
func Generate(ctx context.Context, doc *openapi3.T, opts Options) (*ir.Bundle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	inf := infer.New(opts.Skip...)

	extractor, err := NewExtractor(doc, inf, opts.IncludeTags, opts.ExcludeTags, logger)
	if err != nil {
		return nil, err
	}
	groups := extractor.Extract(doc)
	logger.Debug("operations extracted", "modules", len(groups))

	var schemas openapi3.Schemas
	if doc.Components != nil {
		schemas = doc.Components.Schemas
	}
	// the module map is frozen before any worker starts
	modules := BuildModuleMap(schemas)
	renderer := rust.NewRenderer(modules)
	synth := NewModelSynthesizer(doc, modules, inf, opts.MaxDepth)

	names := synth.Names()
	models := make([]ir.ModelIR, len(names))
	modelWarnings := make([][]string, len(names))
	functions := make([]ir.ModuleIR, len(groups))
	functionWarnings := make([][]string, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallelism, 1))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, warnings, err := synth.Model(name)
			if err != nil {
				return err
			}
			models[i], modelWarnings[i] = model, warnings
			return nil
		})
	}
	for i, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			functions[i], functionWarnings[i] = SynthesizeModule(group, renderer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to synthesize IR: %w", err)
	}

	sort.SliceStable(models, func(i, j int) bool { return models[i].Module < models[j].Module })

	warnings := append([]string(nil), extractor.Warnings()...)
	for _, ws := range modelWarnings {
		warnings = append(warnings, ws...)
	}
	for _, ws := range functionWarnings {
		warnings = append(warnings, ws...)
	}
	for _, w := range warnings[len(extractor.Warnings()):] {
		logger.Warn(w)
	}

	logger.Info("IR synthesized",
		"modules", len(functions),
		"models", len(models),
		"warnings", len(warnings))

	return &ir.Bundle{
		Modules:   functions,
		Models:    models,
		ModuleMap: modules,
		Warnings:  warnings,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// formatWarning renders a log message and its attributes as one line
func formatWarning(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	r := slog.NewRecord(time.Time{}, slog.LevelWarn, msg, 0)
	r.Add(args...)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	return b.String()
}
