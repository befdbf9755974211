// Package templates renders the HTML pages of the conversion server.
//
// The components are written in .templ files; run `templ generate` after
// editing them.
package templates

//go:generate templ generate

import (
	"time"

	"github.com/a-h/templ"
)

// RunRow is one recent conversion shown on the upload page.
type RunRow struct {
	RunID    string
	FileName string
	Phase    string
	Readings int
	Duration time.Duration
}

// PageData is the input of UploadPage.
type PageData struct {
	MaxFileSizeMB int64
	RequireAPIKey bool
	Runs          []RunRow
}

func runURL(id string) templ.SafeURL {
	return templ.URL("/api/runs/" + id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
