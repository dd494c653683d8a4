// Package dbstack carries the release version of the module.
package dbstack

// Version is the release version reported by the CLI.
const Version = "0.1.0"
