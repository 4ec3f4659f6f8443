package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heimdex/heimdex-cropper/internal/geometry"
	"github.com/heimdex/heimdex-cropper/internal/playback"
)

const maxBodyBytes = 64 * 1024

// newValidator registers the crop-specific enum checks.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("aspect_ratio", func(fl validator.FieldLevel) bool {
		_, err := geometry.ParseRatio(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("playback_rate", func(fl validator.FieldLevel) bool {
		_, err := playback.ParseRate(fl.Field().Float())
		return err == nil
	})
	return v
}

// decodeRequest reads a JSON body into dst and validates it. An empty body
// is allowed when allowEmpty is set and leaves dst at its zero value. On
// failure the error response has already been written.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return false
		}
	}

	if err := v.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), "VALIDATION_FAILED")
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "aspect_ratio":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), ratioLabels())
	case "playback_rate":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), rateLabels())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func ratioLabels() string {
	var labels []string
	for _, r := range geometry.SupportedRatios() {
		labels = append(labels, r.String())
	}
	return strings.Join(labels, ", ")
}

func rateLabels() string {
	var labels []string
	for _, r := range playback.SupportedRates() {
		labels = append(labels, fmt.Sprintf("%g", float64(r)))
	}
	return strings.Join(labels, ", ")
}
