// Package ui provides the embedded single-page front end.
package ui

import (
	_ "embed"
)

// IndexHTML is the download page. It posts to /info and links offers to
// /download, or to an offer's direct URL when the lookup supplied one.
//
//go:embed index.html
var IndexHTML []byte

// RobotsTXT is served at /robots.txt.
//
//go:embed robots.txt
var RobotsTXT []byte
