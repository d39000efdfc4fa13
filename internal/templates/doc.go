// Package templates provides project scaffolding templates.
//
// This package contains embedded templates for creating new relight
// projects. Templates include all necessary files for a working app,
// including relight.json and starter routes.
//
// # Available Templates
//
//   - minimal: A single route and nothing else
//   - blog: Starter with example HTML, Markdown and JSON routes
//
// # Usage
//
//	tmpl, err := templates.Get("blog")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tmpl.Create(projectDir, config); err != nil {
//	    log.Fatal(err)
//	}
//
// # Template Variables
//
// Templates support variable substitution:
//
//	{{.ProjectName}}   - Name of the project
//	{{.Description}}   - Project description
//	{{.Port}}          - Preferred dev server port
package templates
