// Package frontend serves the embedded single-page form.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// StaticFS returns the embedded frontend filesystem.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
