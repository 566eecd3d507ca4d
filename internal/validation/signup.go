package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignupForm поля формы регистрации.
type SignupForm struct {
	Username        string `form:"username" validate:"required"`
	Email           string `form:"email" validate:"required"`
	Role            string `form:"role" validate:"required,oneof=teacher student"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

// FieldErrors ошибки формы, сгруппированные по полю.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Add записывает первую ошибку поля, последующие игнорируются.
func (fe FieldErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldNames соответствие полей структуры полям HTML формы.
var fieldNames = map[string]string{
	"Username":        "username",
	"Email":           "email",
	"Role":            "role",
	"Password":        "password",
	"PasswordConfirm": "password_confirm",
}

// ValidateSignup проверяет форму регистрации и возвращает ошибки по каждому полю.
func ValidateSignup(form SignupForm) FieldErrors {
	errs := FieldErrors{}

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs.Add(fieldNames[fe.StructField()], tagMessage(fe))
			}
		}
	}

	if form.Username != "" {
		if err := ValidateUsername(form.Username); err != nil {
			errs.Add("username", err.Error())
		}
	}
	if form.Email != "" {
		if err := ValidateEmail(form.Email); err != nil {
			errs.Add("email", err.Error())
		}
	}
	if form.Password != "" {
		if err := ValidatePassword(form.Password); err != nil {
			errs.Add("password", err.Error())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "oneof":
		return "выберите роль: преподаватель или студент"
	case "eqfield":
		return "пароли не совпадают"
	default:
		return "некорректное значение"
	}
}
