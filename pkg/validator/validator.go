package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateField(field string, value interface{}, rules string) error
}

type validatorImpl struct {
	v *validator.Validate
}

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Decimals validate as floats so numeric tags like gte=0 apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return model.ValidCardNumber(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validator: register cardnumber: %v", err))
	}

	return &validatorImpl{v: v}
}

func (vi *validatorImpl) Validate(obj interface{}) error {
	return translate(vi.v.Struct(obj))
}

func (vi *validatorImpl) ValidateField(field string, value interface{}, rules string) error {
	err := vi.v.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := map[string]string{}
		for _, fe := range verrs {
			fields[field] = fe.Tag()
		}
		return errors.BadRequest("validation failed", err).WithDetail("fields", fields)
	}
	return errors.BadRequest("validation failed", err)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.BadRequest("validation failed", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[trimRoot(fe.Namespace())] = fe.Tag()
	}
	return errors.BadRequest("validation failed", err).WithDetail("fields", fields)
}

// trimRoot drops the struct name from a namespace like "ClaimDetails.services[0].quantity".
func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
