package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/easywork/cmd/easywork/manifest"
	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/pipeline"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Trace and validate a manifest without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateManifest(cmd, root, manifestPath)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to a pipeline manifest (YAML)")
	cmd.MarkFlagRequired("manifest") //nolint:errcheck

	return cmd
}

func validateManifest(cmd *cobra.Command, root *rootFlags, manifestPath string) error {
	level := "info"
	if root.verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Component: "cli"})
	if err != nil {
		return fmt.Errorf("easywork: %w", err)
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	reg := buildRegistry(log.With("component", "registry"))
	nodes, err := m.Instantiate(reg)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Options{Logger: log.With("component", "pipeline"), Workers: root.workers})
	for _, n := range nodes {
		p.Use(n)
	}

	if err := p.Trace(m.Trace(nodes)); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := p.Build(); err != nil {
		return err
	}
	if err := p.Connect(); err != nil {
		return err
	}

	report, err := p.DryTrace()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.String())
	return nil
}
