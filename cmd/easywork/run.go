package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/easywork/cmd/easywork/dashboard"
	"github.com/alexisbeaulieu97/easywork/cmd/easywork/manifest"
	"github.com/alexisbeaulieu97/easywork/internal/executor"
	"github.com/alexisbeaulieu97/easywork/internal/graphtrace"
	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/pipeline"
)

type runOptions struct {
	manifestPath string
	noDashboard  bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a manifest, assemble its graph, and run it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "Path to a pipeline manifest (YAML)")
	cmd.Flags().BoolVar(&opts.noDashboard, "no-dashboard", false, "Always use plain log output, even on a terminal")
	cmd.MarkFlagRequired("manifest") //nolint:errcheck

	return cmd
}

func runManifest(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	level := "info"
	if root.verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Component: "cli"})
	if err != nil {
		return fmt.Errorf("easywork: %w", err)
	}

	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		return err
	}

	reg := buildRegistry(log.With("component", "registry"))
	nodes, err := m.Instantiate(reg)
	if err != nil {
		return err
	}
	for id, n := range nodes {
		if err := n.Open(); err != nil {
			return fmt.Errorf("easywork: open node %q: %w", id, err)
		}
	}
	defer func() {
		for _, n := range nodes {
			n.Close() //nolint:errcheck
		}
	}()

	interactive := !opts.noDashboard && term.IsTerminal(int(os.Stdout.Fd()))

	var events chan executor.Event
	var program *tea.Program
	programDone := make(chan struct{})
	if interactive {
		events = make(chan executor.Event, 64)
		model := dashboard.NewModel(events)
		program = tea.NewProgram(model)
		go func() {
			defer close(programDone)
			program.Run() //nolint:errcheck
		}()
	}

	p := pipeline.New(pipeline.Options{
		Logger:  log.With("component", "pipeline"),
		Tracer:  graphtrace.New(cmd.ErrOrStderr()),
		Workers: root.workers,
		Events:  events,
	})
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
	if err := p.Activate(); err != nil {
		return err
	}

	runErr := p.Run(context.Background())
	if events != nil {
		close(events)
	}
	if program != nil {
		program.Send(dashboard.RunFinishedMsg{Err: runErr})
		program.Send(tea.QuitMsg{})
		<-programDone
	}
	return runErr
}
