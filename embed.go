package blogfront

import "embed"

// EmbeddedAssets contains the static assets served under /public/:
// app.js (live search, dismissible notifications) and app.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
