// Package domain defines the data models, errors and contracts shared by the
// encryption core and its boundary adapters.
//
// Plain types live in the types subpackage and interfaces in the interfaces
// subpackage; both are re-exported here so callers import a single package.
package domain
