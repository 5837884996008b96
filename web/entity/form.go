package entity

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// formValidator reads the "validate" tags. gin binding only decodes the forms; the
// rules run in CheckValid after the fields are trimmed.
func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRegexp.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FormError lists every field that failed validation with a readable message.
type FormError struct {
	Fields map[string]string `json:"fields"`
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "username":
		return "may only contain letters, digits, dots and underscores"
	}
	return "is invalid"
}

func checkStruct(form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fe := &FormError{Fields: make(map[string]string, len(verrs))}
	for _, v := range verrs {
		if _, seen := fe.Fields[v.Field()]; !seen {
			fe.Fields[v.Field()] = fieldMessage(v)
		}
	}
	return fe
}

// QuestionForm is submitted to publish a question.
type QuestionForm struct {
	Title string `json:"title" form:"title" validate:"required,max=100"`
	Body  string `json:"body" form:"body" validate:"required"`
}

// CheckValid trims the fields and validates them.
func (f *QuestionForm) CheckValid() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Body = strings.TrimSpace(f.Body)
	return checkStruct(f)
}

// AnswerForm is submitted to answer a question.
type AnswerForm struct {
	Body string `json:"body" form:"body" validate:"required"`
}

func (f *AnswerForm) CheckValid() error {
	f.Body = strings.TrimSpace(f.Body)
	return checkStruct(f)
}

// RegisterForm creates an account. The password is not trimmed.
type RegisterForm struct {
	Username string `json:"username" form:"username" validate:"required,max=64,username"`
	Email    string `json:"email" form:"email" validate:"required,max=64,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

func (f *RegisterForm) CheckValid() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return checkStruct(f)
}

// LoginForm accepts either the username or the email in Login.
type LoginForm struct {
	Login    string `json:"login" form:"login" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Remember bool   `json:"remember" form:"remember"`
}

func (f *LoginForm) CheckValid() error {
	f.Login = strings.TrimSpace(f.Login)
	return checkStruct(f)
}

type CorrectAnswerForm struct {
	AnswerId int `json:"answerId" form:"answerId" validate:"required,gt=0"`
}

func (f *CorrectAnswerForm) CheckValid() error {
	return checkStruct(f)
}
