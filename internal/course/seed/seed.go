// Package seed bundles the plaintext course definition used to create the
// encrypted course artifact on first run.
package seed

import "embed"

// Name is the seed definition inside FS.
const Name = "course.json"

// FS holds the bundled seed definition.
//
//go:embed course.json
var FS embed.FS
