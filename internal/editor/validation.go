package editor

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the payload fields that block submission, keyed by
// wire name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// Details exposes the field map to the HTTP error envelope.
func (e *ValidationError) Details() any {
	return e.Fields
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the draft locally. It never touches the network.
func (e *Editor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.validateLocked()
	return err
}

// Payload returns the flattened wire payload, or the validation error that
// prevents it from being sent.
func (e *Editor) Payload() (dtos.ListingPayload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked()
}

func (e *Editor) validateLocked() (dtos.ListingPayload, error) {
	payload, resolved := e.flattenLocked()
	fields := make(map[string]string)

	if err := payloadValidator.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return payload, fmt.Errorf("validating payload: %w", err)
		}
		for _, fe := range verrs {
			fields[fieldName(fe)] = describe(fe)
		}
	}

	for name, ok := range presence(payload) {
		if ok || !e.profile.Requires(name) {
			continue
		}
		if name == "owners" && payload.IsNew {
			continue
		}
		if _, already := fields[name]; !already {
			fields[name] = "is required"
		}
	}

	if _, ok := e.state.Value(cascade.FieldModification); ok && !resolved {
		fields["generationId"] = constants.MsgGenerationUnresolved
	}

	if len(fields) > 0 {
		return payload, &ValidationError{Fields: fields}
	}
	return payload, nil
}

// flattenLocked builds the wire payload. The generation id sent is the
// concrete record the chosen modification came from, not the merged group
// the user picked; resolved is false when that record is unknown.
func (e *Editor) flattenLocked() (dtos.ListingPayload, bool) {
	v := func(f cascade.Field) int64 {
		val, _ := e.state.Value(f)
		return val
	}
	steering, _ := e.state.Value(cascade.FieldSteeringSide)
	genID, resolved := e.resolvedGenerationLocked()

	d := e.details
	return dtos.ListingPayload{
		BrandID:        v(cascade.FieldBrand),
		ModelID:        v(cascade.FieldModel),
		BodyTypeID:     v(cascade.FieldBodyType),
		GenerationID:   genID,
		ModificationID: v(cascade.FieldModification),
		CityID:         d.CityID,
		ColorID:        d.ColorID,
		Year:           v(cascade.FieldYear),
		Price:          d.Price,
		Odometer:       d.Odometer,
		PhoneNumbers:   append([]string{}, d.PhoneNumbers...),
		TradeIn:        d.TradeIn,
		VinCode:        d.VinCode,
		SteeringSide:   steering == constants.SteeringRightID,
		AccidentFlag:   d.AccidentFlag,
		IsNew:          d.IsNew,
		Owners:         d.Owners,
		Description:    strings.TrimSpace(d.Description),
	}, resolved
}

func presence(p dtos.ListingPayload) map[string]bool {
	return map[string]bool{
		"cityId":       p.CityID != 0,
		"colorId":      p.ColorID != 0,
		"price":        p.Price > 0,
		"odometer":     p.Odometer > 0 || p.IsNew,
		"phoneNumbers": len(p.PhoneNumbers) > 0,
		"vinCode":      p.VinCode != "",
		"owners":       p.Owners > 0,
		"description":  p.Description != "",
	}
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.Index(ns, "["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed the %q check", fe.Tag())
}
