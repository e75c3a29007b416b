// Package file provides file-based configuration: a TOML config file for
// service endpoints and credentials, and user-editable prompt templates
// with hot reload.
package file
