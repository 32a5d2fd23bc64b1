// Package templates embeds the notification email bodies.
package templates

import "embed"

// FS holds every *.html email template.
//
//go:embed *.html
var FS embed.FS
