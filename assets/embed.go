// Package assets embeds the web page served by the map server.
package assets

import _ "embed"

// IndexTemplate is the html/template source of the map page.
//
//go:embed index.html.tpl
var IndexTemplate string

// Style is the page stylesheet, inlined into the page.
//
//go:embed style.css
var Style string

// Script is the Leaflet client, inlined into the page.
//
//go:embed script.js
var Script string

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte
