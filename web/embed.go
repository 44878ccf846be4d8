package web

import "embed"

// Templates holds the page templates.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds the scripts and styles served under /static/.
//
//go:embed static
var Static embed.FS
