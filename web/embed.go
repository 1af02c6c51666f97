package web

import "embed"

// Templates embeds the HTML document templates rendered to PDF.
//
//go:embed templates/documents/*.html
var Templates embed.FS
