// Package validation validates request payloads.
//
// Struct tag validation uses go-playground/validator and reports json field
// paths. The Validator builder collects programmatic checks. Both return an
// INVALID_INPUT AppError listing every failing field.
//
//	if err := validation.ValidateMessage(&msg); err != nil {
//	    server.RespondWithError(c, err)
//	}
package validation
