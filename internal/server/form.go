package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentireport/internal/analysis"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
)

const (
	FORM_FILE       = "file"
	FORM_ENTITY     = "entity_name"
	FORM_ENTITY_ALT = "bank_name"
)

var formValidator = validator.New()

type uploadForm struct {
	Filename       string `validate:"required"`
	Entity         string `validate:"required_if=EntityRequired true,max=200"`
	EntityRequired bool
	file           *multipart.FileHeader
}

// bindUploadForm reads the multipart upload. The web form requires an entity
// name, the JSON API treats it as optional.
func bindUploadForm(c echo.Context, entityRequired bool) (*uploadForm, error) {
	entity := c.FormValue(FORM_ENTITY)
	if entity == "" {
		entity = c.FormValue(FORM_ENTITY_ALT)
	}

	form := &uploadForm{
		Entity:         strings.TrimSpace(entity),
		EntityRequired: entityRequired,
	}

	fh, err := c.FormFile(FORM_FILE)
	switch {
	case err == nil:
		form.file = fh
		form.Filename = fh.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		if strings.Contains(err.Error(), "request body too large") {
			return nil, echo.ErrStatusRequestEntityTooLarge
		}
		return nil, &analysis.SchemaError{Reason: "the upload could not be read"}
	}

	if err := formValidator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if verrs[0].Tag() == "max" {
				return nil, apperrors.ValidationError("The entity name is too long.").WithContext("field", FORM_ENTITY)
			}
			field := FORM_FILE
			if verrs[0].Field() == "Entity" {
				field = FORM_ENTITY
			}
			return nil, &analysis.MissingInputError{Field: field}
		}
		return nil, err
	}

	return form, nil
}
