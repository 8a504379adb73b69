// Package registry maps node types to their handler factories. The registry is
// static configuration: new node types are added by registering factories, not
// by modifying the executor.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// NotFoundError indicates no handler is registered for a node type.
type NotFoundError struct {
	NodeType string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no handler registered for node type '%s'", e.NodeType)
}

// IsNotFound checks whether err is a handler resolution failure.
func IsNotFound(err error) bool {
	var notFound *NotFoundError

	return errors.As(err, &notFound)
}

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.HandlerFactory),
	}
}

// Register adds a handler factory, replacing any previous factory for the
// same node type.
func (r *Registry) Register(factory protocol.HandlerFactory) {
	r.factories[factory.ID()] = factory
}

// Resolve returns the factory for a node type, or a *NotFoundError.
func (r *Registry) Resolve(nodeType string) (protocol.HandlerFactory, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, &NotFoundError{NodeType: nodeType}
	}

	return factory, nil
}

// Known reports whether a handler is registered for the node type.
func (r *Registry) Known(nodeType string) bool {
	_, ok := r.factories[nodeType]

	return ok
}

// CreateHandler resolves the node's factory, checks the node configuration
// against the factory schema and builds the handler instance.
func (r *Registry) CreateHandler(ctx context.Context, node *models.Node) (protocol.Handler, error) {
	factory, err := r.Resolve(node.Type)
	if err != nil {
		return nil, err
	}

	if err := r.validateConfig(factory, node); err != nil {
		return nil, err
	}

	return factory.Create(ctx, node.ID, node.Config)
}

// ValidateConfig checks a node's configuration against its type's JSON schema.
func (r *Registry) ValidateConfig(node *models.Node) error {
	factory, err := r.Resolve(node.Type)
	if err != nil {
		return err
	}

	return r.validateConfig(factory, node)
}

func (r *Registry) validateConfig(factory protocol.HandlerFactory, node *models.Node) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config for node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("invalid config for node %s (%s): %v", node.ID, node.Type, messages)
	}

	return nil
}

// Components returns metadata for every registered handler type, sorted by
// type, for the authoring UI.
func (r *Registry) Components() []models.RegisteredComponent {
	components := make([]models.RegisteredComponent, 0, len(r.factories))

	for _, factory := range r.factories {
		components = append(components, models.RegisteredComponent{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i].Type < components[j].Type
	})

	return components
}

// HealthCheck reports whether the registry has handlers registered.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No handler factories registered", false
	}

	return fmt.Sprintf("%d handler types registered", len(r.factories)), true
}
