// Package assets embeds the default composition template and the
// live-reload client script served to browsers.
package assets

import _ "embed"

// CardsTemplate is the default composition template used when a deck
// directory does not ship its own cards.html.jinja2.
//
//go:embed cards.html.jinja2
var CardsTemplate string

// LiveReloadJS is the browser client that reconnects to the websocket
// endpoint and reloads the page on a push.
//
//go:embed livereload.js
var LiveReloadJS []byte
