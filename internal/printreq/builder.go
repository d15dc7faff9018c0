// Package printreq composes the parameter set for the map server's GetPrint
// endpoint. Building is pure: no I/O, deterministic for identical inputs.
package printreq

import (
	"net/url"
	"strings"

	"github.com/sogis/landreg-extract/internal/core/config"
	"github.com/sogis/landreg-extract/internal/core/model"
)

// placeholderFields is the static binding between template placeholder names
// and print-info record fields. A template declaring any other placeholder is
// a configuration defect (TemplateBindingError), not a runtime condition.
var placeholderFields = map[string]func(model.MetadataRecord) string{
	"surveyor":     func(m model.MetadataRecord) string { return m.SurveyorID },
	"printdate":    func(m model.MetadataRecord) string { return m.DeliveryDate.Format("2006-01-02") },
	"address":      func(m model.MetadataRecord) string { return m.Address },
	"contact":      func(m model.MetadataRecord) string { return m.Contact },
	"municipality": func(m model.MetadataRecord) string { return m.Municipality },
}

// ValidateBindings checks every configured template against the placeholder
// binding at startup, so broken configuration fails before the first request.
func ValidateBindings(templates []config.TemplateCfg) error {
	for _, t := range templates {
		for _, ph := range t.Placeholders {
			if _, ok := placeholderFields[ph]; !ok {
				return model.NewError(model.KindTemplateBinding, t.Name+": "+ph)
			}
		}
	}
	return nil
}

// Parameters is the fully assembled print request. Never mutated after Build;
// passed by value to the print client.
type Parameters struct {
	Parcel        model.ParcelKey
	Template      string
	Extent        model.Extent
	Scale         string
	DPI           string
	SRS           string
	Rotation      string
	GridIntervalX string
	GridIntervalY string
	Layers        []model.LayerSpec
	Placeholders  map[string]string
}

// Build merges the caller's extent/scale parameters, the resolved layout and
// the resolved metadata. The template's placeholders are re-checked here since
// configuration can change templates out from under a running process.
func Build(req model.ExtractRequest, layout model.LayoutDescriptor, md model.MetadataRecord) (Parameters, error) {
	ph := make(map[string]string, len(layout.Placeholders))
	for _, name := range layout.Placeholders {
		field, ok := placeholderFields[name]
		if !ok {
			return Parameters{}, model.NewError(model.KindTemplateBinding, layout.TemplateID+": "+name)
		}
		ph[name] = field(md)
	}

	rotation := req.Rotation
	if rotation == "" {
		rotation = "0"
	}

	layers := make([]model.LayerSpec, len(layout.Layers))
	copy(layers, layout.Layers)

	return Parameters{
		Parcel:        req.Parcel,
		Template:      layout.TemplateID,
		Extent:        req.Extent,
		Scale:         req.Scale,
		DPI:           req.DPI,
		SRS:           req.SRS,
		Rotation:      rotation,
		GridIntervalX: req.GridIntervalX,
		GridIntervalY: req.GridIntervalY,
		Layers:        layers,
		Placeholders:  ph,
	}, nil
}

// Values serializes the wire form of the GetPrint call. The map server owns
// this contract: uppercase keys, map0-prefixed map parameters, comma-joined
// layer lists in compositing order.
func (p Parameters) Values() url.Values {
	names := make([]string, len(p.Layers))
	styles := make([]string, len(p.Layers))
	opacities := make([]string, len(p.Layers))
	for i, l := range p.Layers {
		names[i] = l.Name
		styles[i] = l.PrintStyle
		opacities[i] = "255"
	}

	v := url.Values{}
	v.Set("SERVICE", "WMS")
	v.Set("VERSION", "1.3.0")
	v.Set("REQUEST", "GetPrint")
	v.Set("FORMAT", "PDF")
	v.Set("TEMPLATE", p.Template)
	v.Set("SRS", p.SRS)
	v.Set("DPI", p.DPI)
	v.Set("LAYERS", strings.Join(names, ","))
	v.Set("STYLES", strings.Join(styles, ","))
	v.Set("OPACITIES", strings.Join(opacities, ","))
	v.Set("map0:EXTENT", p.Extent.String())
	v.Set("map0:ROTATION", p.Rotation)
	if p.Scale != "" {
		v.Set("map0:SCALE", p.Scale)
	}
	if p.GridIntervalX != "" {
		v.Set("map0:GRID_INTERVAL_X", p.GridIntervalX)
	}
	if p.GridIntervalY != "" {
		v.Set("map0:GRID_INTERVAL_Y", p.GridIntervalY)
	}
	for name, val := range p.Placeholders {
		v.Set(strings.ToUpper(name), val)
	}
	return v
}

// ProjectEndpoint joins the map server base URL with the project name.
func ProjectEndpoint(base, project string) string {
	return strings.TrimRight(base, "/") + "/" + project
}
