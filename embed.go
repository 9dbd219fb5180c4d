package pagecraft

import "embed"

// EmbeddedAssets holds the editor script and stylesheet served under
// /public/: pagecraft.js and pagecraft.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
