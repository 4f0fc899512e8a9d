// Package templates renders HTML partials for htmx clients.
//
// Components are written in templ; run templ generate after editing a
// .templ file and commit the generated *_templ.go alongside it.
package templates

//go:generate templ generate
