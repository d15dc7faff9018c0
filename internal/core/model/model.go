// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"time"
)

// ParcelKey identifies the parcel an extract is requested for. Opaque to the
// service beyond being the lookup key for the print-info table.
type ParcelKey string

type Extent struct {
	X1, Y1 float64
	X2, Y2 float64
}

// String representation matching the wms extent format.
func (e Extent) String() string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", e.X1, e.Y1, e.X2, e.Y2)
}

// ExtractRequest is the validated inbound request for one extract.
type ExtractRequest struct {
	Parcel        ParcelKey
	Extent        Extent
	Template      string // empty → configured default
	Layers        []string
	Scale         string // empty → layout default on the map server
	DPI           string
	SRS           string
	Rotation      string
	GridIntervalX string
	GridIntervalY string
}

// MetadataRecord is the authoritative print-info row for one parcel.
// Immutable once fetched; never cached across requests.
type MetadataRecord struct {
	SurveyorID   string
	DeliveryDate time.Time
	Address      string
	Contact      string
	Municipality string
}

type LayerSpec struct {
	Name       string
	PrintStyle string // empty → map server default style
}

// LayoutDescriptor is the resolved print layout: template id, the placeholders
// the template declares, and the layer list in compositing (bottom-to-top) order.
type LayoutDescriptor struct {
	TemplateID   string
	Placeholders []string
	Layers       []LayerSpec
}

// PrintResult is a validated rendered document.
type PrintResult struct {
	ContentType string
	Body        []byte
}
