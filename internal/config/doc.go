// Package config defines the format-agnostic configuration model of the
// application, along with the interfaces (Loader, Converter) for loading
// configuration and binding routed params to Go types.
//
// The `config.Model` is the single source of truth for the `registry` and
// `dispatcher` packages. The HCL implementation of the interfaces lives in
// the `hcl` package.
package config
