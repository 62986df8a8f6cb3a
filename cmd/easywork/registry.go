package main

import (
	"github.com/alexisbeaulieu97/easywork/examples/nodes/basic"
	"github.com/alexisbeaulieu97/easywork/examples/nodes/gitlog"
	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/registry"
)

// buildRegistry assembles the node type table every manifest command
// builds against. A host embedding easywork as a library would register
// its own node types the same way; the CLI only ships the bundled
// example catalogue.
func buildRegistry(log logging.Logger) *registry.Registry {
	reg := registry.New(registry.StrictParams, log)
	basic.Register(reg)
	gitlog.Register(reg)
	return reg
}
