package account

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength     = 20
	MinPasswordLength = 8
	MinimumAge        = 13
	DateLayout        = "2006-01-02"

	passwordSymbols = "@$!%*?&"
)

// SignupForm is the raw signup input. A zero DateOfBirth means no date was
// picked and is treated as today.
type SignupForm struct {
	Name            string    `validate:"filled,nodigits,max=20"`
	Email           string    `validate:"filled"`
	Password        string    `validate:"required,password"`
	ConfirmPassword string    `validate:"filled,eqfield=Password"`
	DateOfBirth     time.Time `validate:"minage=13"`
}

// FormError names the first invalid field and the message to show for it.
type FormError struct {
	Field   string
	Rule    string
	Message string
}

func (e *FormError) Error() string { return e.Message }

// rules is the order in which problems are reported; only the first is shown.
var rules = []FormError{
	{Field: "Name", Rule: "filled", Message: MsgNameRequired},
	{Field: "Name", Rule: "nodigits", Message: MsgNameDigits},
	{Field: "Name", Rule: "max", Message: MsgNameTooLong},
	{Field: "Email", Rule: "filled", Message: MsgEmailRequired},
	{Field: "Password", Rule: "required", Message: MsgPasswordRequired},
	{Field: "ConfirmPassword", Rule: "filled", Message: MsgConfirmRequired},
	{Field: "ConfirmPassword", Rule: "eqfield", Message: MsgPasswordMismatch},
	{Field: "Password", Rule: "password", Message: MsgPasswordPattern},
	{Field: "DateOfBirth", Rule: "minage", Message: MsgTooYoung},
}

type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(), now: now}

	_ = val.v.RegisterValidation("filled", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = val.v.RegisterValidation("nodigits", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsDigit)
	})
	_ = val.v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	_ = val.v.RegisterValidation("minage", func(fl validator.FieldLevel) bool {
		dob, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		today := val.now()
		if dob.IsZero() {
			dob = today
		}
		return Age(dob, today) >= min
	})
	return val
}

// Validate returns nil or the first *FormError in reporting order.
func (val *Validator) Validate(f SignupForm) error {
	err := val.v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, r := range rules {
		for _, fe := range verrs {
			if fe.StructField() == r.Field && fe.Tag() == r.Rule {
				out := r
				return &out
			}
		}
	}
	return &FormError{Field: verrs[0].StructField(), Rule: verrs[0].Tag(), Message: verrs[0].Error()}
}

// ValidPassword requires at least eight characters from [A-Za-z0-9@$!%*?&]
// with one uppercase letter and one symbol.
func ValidPassword(pw string) bool {
	if len(pw) < MinPasswordLength {
		return false
	}
	var upper, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return upper && symbol
}

// Age counts completed years between dob and today by calendar date.
func Age(dob, today time.Time) int {
	y1, m1, d1 := dob.Date()
	y2, m2, d2 := today.Date()
	age := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		age--
	}
	return age
}

// ParseDate reads a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}
