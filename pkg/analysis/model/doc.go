// Package model provides the data structures and contracts shared by the
// analysis packages. It defines the capability contract every model variant
// satisfies, the capability descriptor used for registry discovery, the
// lifecycle and error types, and the option hooks the engine drives during
// a run.
package model
