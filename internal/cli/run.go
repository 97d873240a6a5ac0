package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cloudflavor/skygen"
	"github.com/cloudflavor/skygen/pkg/config"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Synthesize the IR bundle of an OpenAPI document",
		Long: `Synthesize the IR bundle of an OpenAPI document and write it, together
with the project metadata, as JSON or YAML. Nothing is written when
synthesis fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := rootOpts.logger()

			var buf bytes.Buffer
			if err := skygen.Generate(cmd.Context(), &buf, skygen.OptionsFromConfig(cfg, logger)); err != nil {
				return err
			}
			if err := writeOutput(cmd, cfg.Output, buf.Bytes()); err != nil {
				return err
			}
			if cfg.Output != "" {
				logger.Info("bundle written", "output", cfg.Output, "format", cfg.Format)
			}
			return nil
		},
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that an OpenAPI document parses and its references resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			opts := skygen.OptionsFromConfig(cfg, rootOpts.logger())
			if err := skygen.Validate(cmd.Context(), opts, strict); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", cfg.Spec)
			return err
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "also check the document against the OpenAPI 3 rules")
	return cmd
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the normalized document with every reference inlined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			tree, err := skygen.Resolve(cmd.Context(), skygen.OptionsFromConfig(cfg, rootOpts.logger()))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := encode(&buf, cfg.Format, tree); err != nil {
				return err
			}
			return writeOutput(cmd, cfg.Output, buf.Bytes())
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
}

// writeOutput writes data to path, or to the command's stdout when path
// is empty
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
