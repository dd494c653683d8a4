// Package types defines the record schema capability, the filter language,
// the Store interface and the standard errors for dbstack.
//
// A record type describes its table with a Descriptor. Property values carry
// one column each. Filters combine into a Condition that compiles to the
// WHERE / ORDER BY / LIMIT suffix of a statement.
package types
