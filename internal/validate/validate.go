// Package validate inspects print responses before they reach the caller.
// Print servers routinely answer a failed render with an HTML error page and
// status 200; such a response must never be handed out as a legal document.
package validate

import (
	"bytes"
	"fmt"
	"mime"

	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/printclient"
)

const pdfContentType = "application/pdf"

var pdfMagic = []byte("%PDF-")

type Validator struct {
	minBytes int
}

func New(minBytes int) *Validator {
	if minBytes <= 0 {
		minBytes = 1024
	}
	return &Validator{minBytes: minBytes}
}

// Validate converts a raw upstream response into a PrintResult or a
// MalformedDocument failure.
func (v *Validator) Validate(raw printclient.RawResponse) (model.PrintResult, error) {
	mediaType, _, err := mime.ParseMediaType(raw.ContentType)
	if err != nil || mediaType != pdfContentType {
		observability.IncValidationFailure("content_type")
		return model.PrintResult{}, model.NewError(model.KindMalformedDocument,
			fmt.Sprintf("content type %q", raw.ContentType))
	}

	if len(raw.Body) < v.minBytes {
		observability.IncValidationFailure("size")
		return model.PrintResult{}, model.NewError(model.KindMalformedDocument,
			fmt.Sprintf("%d bytes, below minimum %d", len(raw.Body), v.minBytes))
	}

	if !bytes.HasPrefix(raw.Body, pdfMagic) {
		observability.IncValidationFailure("magic")
		return model.PrintResult{}, model.NewError(model.KindMalformedDocument,
			"missing PDF signature")
	}

	return model.PrintResult{ContentType: pdfContentType, Body: raw.Body}, nil
}
