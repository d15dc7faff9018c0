// Package layout resolves print layouts: template selection and the layer
// list in the map server's compositing order.
package layout

import (
	"github.com/sogis/landreg-extract/internal/core/config"
	"github.com/sogis/landreg-extract/internal/core/model"
)

type Resolver struct {
	defaultTemplate string
	templates       map[string][]string
	layers          []model.LayerSpec
	configured      map[string]struct{}
}

// NewResolver captures the immutable layout configuration: the configured
// templates with their placeholders and the print layer set in compositing
// (bottom-to-top) order, with optional per-layer print styles.
func NewResolver(defaultTemplate string, templates []config.TemplateCfg, layers []string, styles map[string]string) *Resolver {
	tpl := make(map[string][]string, len(templates))
	for _, t := range templates {
		tpl[t.Name] = t.Placeholders
	}
	specs := make([]model.LayerSpec, 0, len(layers))
	configured := make(map[string]struct{}, len(layers))
	for _, name := range layers {
		specs = append(specs, model.LayerSpec{Name: name, PrintStyle: styles[name]})
		configured[name] = struct{}{}
	}
	return &Resolver{
		defaultTemplate: defaultTemplate,
		templates:       tpl,
		layers:          specs,
		configured:      configured,
	}
}

// Resolve maps an optional template name and an optional layer subset onto a
// concrete layout. The layer order of the result is always the configured
// order, never the order the caller supplied, so compositing stays
// deterministic regardless of client input.
func (r *Resolver) Resolve(templateName string, requested []string) (model.LayoutDescriptor, error) {
	if templateName == "" {
		templateName = r.defaultTemplate
	}
	placeholders, ok := r.templates[templateName]
	if !ok {
		return model.LayoutDescriptor{}, model.NewError(model.KindUnknownTemplate, templateName)
	}

	layers := r.layers
	if len(requested) > 0 {
		want := make(map[string]struct{}, len(requested))
		for _, name := range requested {
			if _, ok := r.configured[name]; !ok {
				return model.LayoutDescriptor{}, model.NewError(model.KindUnknownLayer, name)
			}
			want[name] = struct{}{}
		}
		subset := make([]model.LayerSpec, 0, len(want))
		for _, spec := range r.layers {
			if _, ok := want[spec.Name]; ok {
				subset = append(subset, spec)
			}
		}
		layers = subset
	}

	out := make([]model.LayerSpec, len(layers))
	copy(out, layers)

	return model.LayoutDescriptor{
		TemplateID:   templateName,
		Placeholders: placeholders,
		Layers:       out,
	}, nil
}
