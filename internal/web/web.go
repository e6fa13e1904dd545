// Package web embeds the HTML templates rendered by the handlers.
package web

import "embed"

// Templates holds layout.html and one file per page under templates/.
//
//go:embed templates/*.html
var Templates embed.FS
