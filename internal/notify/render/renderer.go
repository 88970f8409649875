// internal/notify/render/renderer.go
package render

import (
	"html"
	"regexp"
	"strings"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"

	"github.com/druids/gonotify/internal/common/errors"
)

// Options are the process-wide rendering options, resolved once from
// configuration at startup.
type Options struct {
	// Check validates that every placeholder resolves before rendering.
	Check bool
	// Translate runs the raw template string through the catalog first.
	Translate bool
	// Prefix is prepended to every template body before compilation.
	Prefix string
	// StripHTML removes tags and entities from the rendered output.
	StripHTML bool
}

// placeholderPattern captures the leading identifier of {{.name...}} actions.
var placeholderPattern = regexp.MustCompile(`\{\{-?[\s(]*\.([A-Za-z_][A-Za-z0-9_]*)`)

// Renderer renders template strings against a sandboxed context.
// Rendering is deterministic: identical (template, context, options) input
// always yields identical output.
type Renderer struct {
	opts      Options
	catalog   Catalog
	sanitizer *bluemonday.Policy
}

func NewRenderer(opts Options, catalog Catalog) *Renderer {
	return &Renderer{
		opts:      opts,
		catalog:   catalog,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Render renders a single template field. The field name is used only for
// error reporting.
func (r *Renderer) Render(field, templateString string, ctx Context) (string, error) {
	if templateString == "" {
		return "", nil
	}

	if r.opts.Translate {
		templateString = r.catalog.Translate(templateString)
	}

	if r.opts.Check {
		if err := r.CheckContext(field, templateString, ctx); err != nil {
			return "", err
		}
	}

	tmpl, err := texttemplate.New(field).Parse(r.opts.Prefix + templateString)
	if err != nil {
		return "", errors.NewRenderFailedError(field, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", errors.NewRenderFailedError(field, err)
	}

	out := buf.String()
	if r.opts.StripHTML {
		out = StripHTML(r.sanitizer, out)
	}
	return out, nil
}

// CheckContext verifies that every placeholder referenced by the template
// string is present in the context and does not resolve to a deleted object.
// Catches authoring mistakes early instead of rendering silently-empty output.
func (r *Renderer) CheckContext(field, templateString string, ctx Context) error {
	for _, match := range placeholderPattern.FindAllStringSubmatch(templateString, -1) {
		name := match[1]
		value, ok := ctx[name]
		if !ok || value == nil || IsDeleted(value) {
			return errors.NewMissingContextVariableError(field, name)
		}
	}
	return nil
}

// StripHTML removes tags and decodes entities from a rendered string.
func StripHTML(policy *bluemonday.Policy, value string) string {
	return html.UnescapeString(policy.Sanitize(value))
}
