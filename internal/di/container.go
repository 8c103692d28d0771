// Package di provides the dependency-injection container shared by the
// router, the dispatcher and the action handlers of a single invocation.
package di

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ErrServiceNotFound is returned when a service name was never registered.
var ErrServiceNotFound = errors.New("service not found")

// Well-known service names registered by the application.
const (
	ServiceLogger   = "logger"
	ServiceOutput   = "output"
	ServiceRegistry = "registry"
	ServiceConfig   = "config"
	ServiceRouter   = "router"

	// ServiceHTTPClient is a shared *http.Client, built on first use.
	ServiceHTTPClient = "http_client"
)

// Factory builds a shared service the first time it is requested.
type Factory func(c *Container) (any, error)

// InjectionAware is implemented by components that receive the container.
type InjectionAware interface {
	SetDI(c *Container)
	GetDI() *Container
}

type definition struct {
	instance any
	factory  Factory
	resolved bool
}

// Container stores named services. It is safe for concurrent use.
type Container struct {
	mu       sync.Mutex
	services map[string]*definition
}

// New creates an empty container.
func New() *Container {
	return &Container{services: make(map[string]*definition)}
}

// Set registers a ready-made service, replacing any previous definition.
func (c *Container) Set(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = &definition{instance: service, resolved: true}
}

// SetShared registers a factory that is invoked once, on first Get.
func (c *Container) SetShared(name string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("di: nil factory for service '%s'", name))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = &definition{factory: factory}
}

// Get returns the named service, building it first if it was registered
// with SetShared. A failed factory is retried on the next Get.
func (c *Container) Get(name string) (any, error) {
	c.mu.Lock()
	def, ok := c.services[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("di: %w: %s", ErrServiceNotFound, name)
	}
	if def.resolved {
		c.mu.Unlock()
		return def.instance, nil
	}
	factory := def.factory
	c.mu.Unlock()

	// The factory runs unlocked so it may resolve its own dependencies.
	instance, err := factory(c)
	if err != nil {
		return nil, fmt.Errorf("di: failed to build service '%s': %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if def.resolved {
		return def.instance, nil
	}
	def.instance = instance
	def.resolved = true
	return instance, nil
}

// Names returns the registered service names in lexical order.
func (c *Container) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fetches the named service and asserts it to T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	svc, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("di: service '%s' is %T, not %s", name, svc, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
