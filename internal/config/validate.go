package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalidConfig matches every validation failure via errors.Is.
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError is one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every violation found (validation does not fail
// fast).
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfig) true.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaVal  cue.Value
	schemaErr  error
)

// loadSchema compiles the embedded schema once.
func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile config schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Config"))
		schemaErr = schemaVal.Err()
	})
	return schemaCtx, schemaVal, schemaErr
}

// schemaMu serializes validation: a cue.Context is not safe for concurrent
// use.
var schemaMu sync.Mutex

func validateSchema(c Config) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, schema, err := loadSchema()
	if err != nil {
		return err
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// toValidationErrors flattens a CUE error list into field/message pairs.
func toValidationErrors(err error) ValidationErrors {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return ValidationErrors{{Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(errs))
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		// Disjunction failures repeat the same message per branch.
		if key := ve.Error(); !seen[key] {
			seen[key] = true
			out = append(out, ve)
		}
	}
	return out
}
