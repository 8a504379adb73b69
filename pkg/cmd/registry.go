// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/vireohq/flowd/pkg/registry"
)

// NewRegistry builds a handler registry with all built-in node types registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultHandlers()

	return reg
}
