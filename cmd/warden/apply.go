package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/strandline/warden/pkg/config"
	"github.com/strandline/warden/pkg/log"
	"github.com/strandline/warden/pkg/manifest"
	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/reconcile"
)

var (
	applyManifestPath string
	applyDryRun       bool
	applyTemplateDir  string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the host once against a policy manifest",
	Long: `apply loads a YAML policy manifest, normalizes its resources into
a dependency order, and runs a single stat/fixup pass against the host.
It exits non-zero if any resource's fixup failed.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyManifestPath, "file", "f", "", "Path to the policy manifest (required)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report differences without changing anything")
	applyCmd.Flags().StringVar(&applyTemplateDir, "template-dir", "", "Directory of text/template sources for templated files")
	applyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("apply")

	doc, err := manifest.Load(applyManifestPath)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	pol := policy.New()
	if err := manifest.Apply(doc, pol); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	env := provider.NewMemEnv()
	env.SeedFact("hostname", config.Hostname())

	if applyTemplateDir != "" {
		if err := renderTemplatedFiles(cmd, doc, env, applyTemplateDir); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}

	order, err := pol.Normalize(env.Facts().All())
	if err != nil {
		return fmt.Errorf("apply: normalize policy: %w", err)
	}

	driver := reconcile.NewDriver()
	run, err := driver.Run(cmd.Context(), order, pol, env, applyDryRun)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	for _, rep := range run.Reports {
		for _, action := range rep.Actions {
			logger.Info().
				Str("kind", string(rep.Kind)).
				Str("key", rep.Key).
				Str("action", action.Summary).
				Str("outcome", string(action.Outcome)).
				Msg("fixup")
		}
	}

	counts := run.ActionCounts()
	logger.Info().
		Int("resources", len(run.Reports)).
		Interface("actions", counts).
		Bool("dry_run", applyDryRun).
		Msg("run complete")

	if run.AnyFailed() {
		return fmt.Errorf("apply: one or more resources failed to converge")
	}
	return nil
}

// renderTemplatedFiles walks the manifest for File resources declared
// with a "template" attribute and renders each one against the env's
// current facts, seeding the result under the file's path into the
// in-memory source store that File.Fixup copies content from.
func renderTemplatedFiles(cmd *cobra.Command, doc *manifest.Document, env *provider.MemEnv, templateDir string) error {
	src := manifest.NewTemplateSource(templateDir, env.Facts().All())
	for _, spec := range doc.Resources {
		key, ok := spec.Attrs["template"]
		if !ok {
			continue
		}
		stream, _, err := src.Open(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("render template for %s %s: %w", spec.Kind, spec.Key, err)
		}
		data, err := io.ReadAll(stream)
		stream.Close()
		if err != nil {
			return fmt.Errorf("read rendered template for %s %s: %w", spec.Kind, spec.Key, err)
		}
		env.SeedSource(spec.Key, data)
	}
	return nil
}
