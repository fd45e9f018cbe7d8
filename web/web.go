// Package web holds the embedded dashboard page.
package web

import _ "embed"

//go:embed static/index.html
var IndexHTML []byte

//go:embed static/app.js
var AppJS []byte
