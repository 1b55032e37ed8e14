// Package web embeds the static UI assets.
package web

import _ "embed"

// IndexHTML is the single-page UI shell.
//
//go:embed index.html
var IndexHTML []byte
