// Package validator checks goal and subtask input before it is persisted.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sbenjam1n/goaltrack/internal/goal"
)

// Result is the outcome of validating one input.
type Result struct {
	Passed  bool     `json:"passed"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
}

// Detail describes one failed field check.
type Detail struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
	Fix      string `json:"fix"`
}

// Err returns nil for a passing result and a *Error otherwise.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	return &Error{Result: r}
}

// Error carries a failed Result through error returns.
type Error struct {
	Result *Result
}

func (e *Error) Error() string {
	return e.Result.Message
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

type goalInput struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=5000"`
	Year        int            `json:"year" validate:"min=1900,max=9999"`
	Subtasks    []subtaskInput `json:"subtasks" validate:"dive"`
}

type subtaskInput struct {
	Title string `json:"title" validate:"required,max=255"`
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Goal validates a goal and its subtasks. Titles are checked after trimming.
func (v *Validator) Goal(g goal.Goal) *Result {
	in := goalInput{
		Title:       strings.TrimSpace(g.Title),
		Description: g.Description,
		Year:        g.Year,
	}
	for _, st := range g.Subtasks {
		in.Subtasks = append(in.Subtasks, subtaskInput{Title: strings.TrimSpace(st.Title)})
	}
	return v.check(in, "goal")
}

// Subtask validates a single subtask.
func (v *Validator) Subtask(st goal.Subtask) *Result {
	return v.check(subtaskInput{Title: strings.TrimSpace(st.Title)}, "subtask")
}

func (v *Validator) check(in any, what string) *Result {
	err := v.v.Struct(in)
	if err == nil {
		return &Result{Passed: true, Message: what + " is valid"}
	}

	res := &Result{Passed: false}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Message = fmt.Sprintf("invalid %s: %v", what, err)
		return res
	}
	for _, fe := range verrs {
		res.Details = append(res.Details, detail(fe))
	}
	fields := make([]string, len(res.Details))
	for i, d := range res.Details {
		fields[i] = d.Field
	}
	res.Message = fmt.Sprintf("invalid %s: %s", what, strings.Join(fields, ", "))
	return res
}

// fieldPath turns "goalInput.subtasks[1].title" into "subtasks[1].title".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func detail(fe validator.FieldError) Detail {
	field := fieldPath(fe)
	d := Detail{Field: field}
	switch fe.Tag() {
	case "required":
		d.Expected = "non-empty " + fe.Field()
		d.Got = "empty"
		d.Fix = fmt.Sprintf("Provide a %s.", fe.Field())
	case "max":
		if s, ok := fe.Value().(string); ok {
			d.Expected = fmt.Sprintf("at most %s characters", fe.Param())
			d.Got = fmt.Sprintf("%d characters", utf8.RuneCountInString(s))
			d.Fix = fmt.Sprintf("Shorten %s to %s characters or fewer.", field, fe.Param())
			break
		}
		d.Expected = fmt.Sprintf("%s at most %s", field, fe.Param())
		d.Got = fmt.Sprint(fe.Value())
		d.Fix = fmt.Sprintf("Use a %s of %s or earlier.", field, fe.Param())
	case "min":
		d.Expected = fmt.Sprintf("%s at least %s", field, fe.Param())
		d.Got = fmt.Sprint(fe.Value())
		d.Fix = fmt.Sprintf("Use a %s of %s or later.", field, fe.Param())
	default:
		d.Expected = fe.Tag()
		d.Got = fmt.Sprint(fe.Value())
		d.Fix = fmt.Sprintf("Correct %s.", field)
	}
	return d
}
