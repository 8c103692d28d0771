// Package app wires one taskroute invocation together: it loads the HCL
// configuration, registers the compiled-in modules, validates them against
// their manifests and hands the command-line arguments to the router and the
// dispatcher. It is decoupled from any specific entrypoint like a CLI.
package app
