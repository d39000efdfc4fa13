package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/relight-dev/relight/internal/errors"
)

// Config contains values substituted into template files.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Description is a short project description.
	Description string

	// Port is the preferred dev server port.
	Port int
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"blog":    blogTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("E401").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: minimal, blog")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create generates a project from the template.
func (t *Template) Create(dir string, cfg Config) error {
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}

		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}

	return nil
}

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A single route and nothing else",
		Files: map[string]string{
			"relight.json": `{
  "name": "{{.ProjectName}}",
  "appDirectory": "app",
  "assetsBuildDirectory": "build",
  "dev": {
    "port": {{.Port}}
  }
}
`,
			"app/routes/index.html": `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>{{.ProjectName}}</title>
    <link rel="stylesheet" href="/assets/style.css" />
  </head>
  <body>
    <h1>{{.ProjectName}}</h1>
    <p>{{.Description}}</p>
    <p>Edit <code>app/routes/index.html</code> and watch this page reload.</p>
  </body>
</html>
`,
			"public/style.css": `body {
  font-family: system-ui, sans-serif;
  max-width: 720px;
  margin: 0 auto;
  padding: 2rem;
}

h1 {
  color: #2563eb;
}
`,
			".gitignore": `build/
.env
`,
		},
	}
}

// blogTemplate returns the blog template with a few example routes.
func blogTemplate() *Template {
	tmpl := minimalTemplate()
	files := map[string]string{}
	for path, content := range tmpl.Files {
		files[path] = content
	}

	files["app/routes/blog/index.html"] = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>{{.ProjectName}} — blog</title>
    <link rel="stylesheet" href="/assets/style.css" />
  </head>
  <body>
    <h1>Blog</h1>
    <ul>
      <li><a href="/blog/hello">Hello, world</a></li>
    </ul>
  </body>
</html>
`
	files["app/routes/blog/hello.md"] = `# Hello, world

This is the first post on {{.ProjectName}}.

Markdown routes are served as-is; pair them with a renderer of your
choice in production.
`
	files["app/routes/feed.json"] = `{
  "title": "{{.ProjectName}}",
  "description": "{{.Description}}",
  "items": []
}
`

	return &Template{
		Name:        "blog",
		Description: "Starter with example HTML, Markdown and JSON routes",
		Files:       files,
	}
}
