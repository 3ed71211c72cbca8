package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single problem with one submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Errors collects every field problem of a submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *Errors) Add(field, code, message string) {
	*e = append(*e, FieldError{Field: field, Code: code, Message: message})
}

// AddRejection records a file rejection under field.
func (e *Errors) AddRejection(field string, r *Rejection) {
	e.Add(field, string(r.Kind), r.Message)
}

// Err returns nil when no error has been collected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// UploadForm is the non-file part of a document upload.
type UploadForm struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"max=10000"`
}

// Normalize trims surrounding whitespace.
func (f *UploadForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
}

// CommentForm is a comment submission.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"required,max=5000"`
}

func (f *CommentForm) Normalize() {
	f.Text = strings.TrimSpace(f.Text)
}

// LoginForm is a login submission.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150"`
	Password string `form:"password" json:"password" validate:"required,max=128"`
}

func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// UserForm describes a new account.
type UserForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150,username"`
	Password string `form:"password" json:"password" validate:"required,min=8,max=128"`
}

func (f *UserForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	usernameRe   = regexp.MustCompile(`^[\w.@+-]+$`)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.Split(f.Tag.Get("form"), ",")[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct runs the struct tags of s and returns Errors, or nil when s is valid.
func ValidateStruct(s any) Errors {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "__all__", Code: "invalid", Message: err.Error()}}
	}

	out := make(Errors, 0, len(verrs))
	for _, e := range verrs {
		out.Add(e.Field(), e.Tag(), message(e))
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", e.Param())
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", e.Param())
	case "username":
		return "may contain only letters, digits and @/./+/-/_ characters"
	default:
		return fmt.Sprintf("failed on the %q rule", e.Tag())
	}
}
