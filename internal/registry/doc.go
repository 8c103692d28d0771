// Package registry provides the central "glue" between task manifests and Go
// code.
//
// The Registry stores mappings between the handler names used in manifests
// (e.g., "PrintParams") and the compiled Go functions and params structs that
// implement each action. It also holds the parsed, format-agnostic task
// definitions from the manifests themselves.
//
// During application startup, the registry is populated and then validated to
// ensure that the Go code and the manifests agree on every action and param,
// preventing a wide class of runtime errors.
package registry
