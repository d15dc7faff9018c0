package printreq

import (
	"testing"
	"time"

	"github.com/sogis/landreg-extract/internal/core/config"
	"github.com/sogis/landreg-extract/internal/core/model"
)

func testRequest() model.ExtractRequest {
	return model.ExtractRequest{
		Parcel: "CH.1.2033",
		Extent: model.Extent{X1: 2607000, Y1: 1228000, X2: 2608000, Y2: 1229000},
		Scale:  "500",
		DPI:    "300",
		SRS:    "EPSG:2056",
	}
}

func testLayout() model.LayoutDescriptor {
	return model.LayoutDescriptor{
		TemplateID:   "A4-Hoch",
		Placeholders: []string{"surveyor", "printdate"},
		Layers: []model.LayerSpec{
			{Name: "parcels", PrintStyle: "print"},
			{Name: "buildings"},
			{Name: "labels"},
		},
	}
}

func testMetadata() model.MetadataRecord {
	return model.MetadataRecord{
		SurveyorID:   "S-42",
		DeliveryDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuild_PlaceholderValues(t *testing.T) {
	p, err := Build(testRequest(), testLayout(), testMetadata())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Placeholders["surveyor"] != "S-42" {
		t.Fatalf("surveyor=%q want S-42", p.Placeholders["surveyor"])
	}
	if p.Placeholders["printdate"] != "2024-03-01" {
		t.Fatalf("printdate=%q want 2024-03-01", p.Placeholders["printdate"])
	}
}

func TestBuild_IsPure(t *testing.T) {
	a, err := Build(testRequest(), testLayout(), testMetadata())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := Build(testRequest(), testLayout(), testMetadata())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if a.Values().Encode() != b.Values().Encode() {
		t.Fatalf("identical inputs produced different encodings:\n%s\n%s",
			a.Values().Encode(), b.Values().Encode())
	}
}

func TestBuild_UnboundPlaceholderFails(t *testing.T) {
	layout := testLayout()
	layout.Placeholders = append(layout.Placeholders, "watermark")
	_, err := Build(testRequest(), layout, testMetadata())
	if model.KindOf(err) != model.KindTemplateBinding {
		t.Fatalf("kind=%q want %q (err=%v)", model.KindOf(err), model.KindTemplateBinding, err)
	}
}

func TestValues_WireShape(t *testing.T) {
	p, err := Build(testRequest(), testLayout(), testMetadata())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v := p.Values()

	assertHas := func(k, want string) {
		t.Helper()
		if got := v.Get(k); got != want {
			t.Fatalf("param %q got %q want %q", k, got, want)
		}
	}
	assertHas("SERVICE", "WMS")
	assertHas("VERSION", "1.3.0")
	assertHas("REQUEST", "GetPrint")
	assertHas("FORMAT", "PDF")
	assertHas("TEMPLATE", "A4-Hoch")
	assertHas("LAYERS", "parcels,buildings,labels")
	assertHas("STYLES", "print,,")
	assertHas("OPACITIES", "255,255,255")
	assertHas("map0:EXTENT", "2607000.000,1228000.000,2608000.000,1229000.000")
	assertHas("map0:SCALE", "500")
	assertHas("map0:ROTATION", "0")
	assertHas("SURVEYOR", "S-42")
	assertHas("PRINTDATE", "2024-03-01")
	if v.Get("EXTENT") != "" || v.Get("SCALE") != "" {
		t.Fatal("unprefixed extent/scale must not be sent")
	}
}

func TestValues_OptionalParamsOmitted(t *testing.T) {
	req := testRequest()
	req.Scale = ""
	p, err := Build(req, testLayout(), testMetadata())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v := p.Values()
	if _, ok := v["map0:SCALE"]; ok {
		t.Fatal("map0:SCALE must be absent when no scale requested")
	}
	if _, ok := v["map0:GRID_INTERVAL_X"]; ok {
		t.Fatal("grid intervals must be absent unless supplied")
	}
}

func TestValidateBindings(t *testing.T) {
	ok := []config.TemplateCfg{
		{Name: "A4-Hoch", Placeholders: []string{"surveyor", "printdate"}},
		{Name: "A3-Quer", Placeholders: []string{"surveyor", "printdate", "municipality"}},
	}
	if err := ValidateBindings(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []config.TemplateCfg{{Name: "A4-Hoch", Placeholders: []string{"surveyor", "watermark"}}}
	err := ValidateBindings(bad)
	if model.KindOf(err) != model.KindTemplateBinding {
		t.Fatalf("kind=%q want %q (err=%v)", model.KindOf(err), model.KindTemplateBinding, err)
	}
}

func TestProjectEndpoint(t *testing.T) {
	got := ProjectEndpoint("http://localhost:8001/ows/", "grundbuch")
	want := "http://localhost:8001/ows/grundbuch"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
