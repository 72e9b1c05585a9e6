package shared

import (
	"github.com/go-playground/form"
)

// DateOnly is the wire format for date-only query parameters.
const DateOnly = "2006-01-02"

// Decoder is the shared form/query decoder. Struct fields opt in via `form` tags.
var Decoder = form.NewDecoder()
