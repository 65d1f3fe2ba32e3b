// Package editor implements the single-use form that collects one project
// record and hands it to the project store.
package editor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/curaious/folio/internal/services/project"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrFormClosed       = errors.New("form already closed")
)

// ValidationError lists the fields that blocked a submission. Reasons[i]
// explains Fields[i] and is "required" or "invalid".
type ValidationError struct {
	Fields  []string
	Reasons []string
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, field)
	e.Reasons = append(e.Reasons, reason)
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, field := range e.Fields {
		parts[i] = field + " " + e.Reasons[i]
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type State int

const (
	StateNew State = iota
	StateEditing
	StateSubmitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateEditing:
		return "editing"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Upserter is the store operation a submitted form hands its record to.
type Upserter interface {
	Upsert(ctx context.Context, rec project.Record, isEdit bool) (project.Collection, error)
}

// Form holds one record being edited. Field setters on a closed form are
// ignored.
type Form struct {
	state  State
	record project.Record
	staged string
}

// New opens an empty form for a new record.
func New() *Form {
	return &Form{
		state: StateNew,
		record: project.Record{
			Technologies: []string{},
			Category:     project.CategoryFrontend,
		},
	}
}

// Edit opens a form pre-populated from rec.
func Edit(rec project.Record) *Form {
	rec = rec.Clone()
	if rec.Category == "" {
		rec.Category = project.CategoryFrontend
	}
	return &Form{state: StateEditing, record: rec}
}

func (f *Form) State() State { return f.state }

func (f *Form) IsEdit() bool { return f.state == StateEditing }

func (f *Form) open() bool {
	return f.state == StateNew || f.state == StateEditing
}

// Record returns a copy of the current field values.
func (f *Form) Record() project.Record { return f.record.Clone() }

func (f *Form) SetTitle(v string) {
	if f.open() {
		f.record.Title = v
	}
}

func (f *Form) SetDescription(v string) {
	if f.open() {
		f.record.Description = v
	}
}

func (f *Form) SetImage(v string) {
	if f.open() {
		f.record.Image = v
	}
}

func (f *Form) SetLiveURL(v string) {
	if f.open() {
		f.record.LiveURL = v
	}
}

func (f *Form) SetGithubURL(v string) {
	if f.open() {
		f.record.GithubURL = v
	}
}

func (f *Form) SetFeatured(v bool) {
	if f.open() {
		f.record.Featured = v
	}
}

// SetCategory accepts only the known categories.
func (f *Form) SetCategory(c project.Category) error {
	if !c.IsValid() {
		return project.ErrUnknownCategory
	}
	if f.open() {
		f.record.Category = c
	}
	return nil
}

// Stage sets the pending technology text.
func (f *Form) Stage(text string) {
	if f.open() {
		f.staged = text
	}
}

func (f *Form) Staged() string { return f.staged }

// AddStaged appends the trimmed staged text as a technology and clears the
// staging value. Empty or already present text is ignored and stays staged.
func (f *Form) AddStaged() bool {
	if !f.open() {
		return false
	}

	tag := strings.TrimSpace(f.staged)
	if tag == "" || f.record.HasTech(tag) {
		return false
	}

	f.record.Technologies = append(f.record.Technologies, tag)
	f.staged = ""
	return true
}

// AddTech stages text and adds it in one step.
func (f *Form) AddTech(text string) bool {
	f.Stage(text)
	return f.AddStaged()
}

// RemoveTech deletes tag by exact match.
func (f *Form) RemoveTech(tag string) bool {
	if !f.open() {
		return false
	}

	for i, t := range f.record.Technologies {
		if t == tag {
			f.record.Technologies = append(f.record.Technologies[:i:i], f.record.Technologies[i+1:]...)
			return true
		}
	}
	return false
}

// prepared is the record as it will be submitted.
func (f *Form) prepared() project.Record {
	rec := f.record.Clone()
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	return rec
}

// Validate checks the required fields and the category. Every text field
// must be valid UTF-8; URL fields are otherwise free text.
func (f *Form) Validate() error {
	rec := f.prepared()
	verr := &ValidationError{}

	if err := validate.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			reason := "invalid"
			if fe.Tag() == "required" {
				reason = "required"
			}
			verr.add(fe.Field(), reason)
		}
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"title", rec.Title},
		{"description", rec.Description},
		{"image", rec.Image},
		{"liveUrl", rec.LiveURL},
		{"githubUrl", rec.GithubURL},
	} {
		if !utf8.ValidString(field.value) {
			verr.add(field.name, "invalid")
		}
	}
	for _, tag := range rec.Technologies {
		if !utf8.ValidString(tag) {
			verr.add("technologies", "invalid")
			break
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// Submit validates the form and hands the record to u. A failed validation
// keeps the form open. Once the record reaches the store the form is closed,
// even if persisting it failed.
func (f *Form) Submit(ctx context.Context, u Upserter) (project.Collection, error) {
	if !f.open() {
		return nil, ErrFormClosed
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	c, err := u.Upsert(ctx, f.prepared(), f.IsEdit())
	if err != nil && !errors.Is(err, project.ErrPersistenceUnavailable) {
		return c, err
	}

	f.state = StateSubmitted
	return c, err
}

// Cancel discards the form without touching the store.
func (f *Form) Cancel() {
	if f.open() {
		f.state = StateCancelled
	}
}
