// Package validate checks command options before any request is sent.
package validate

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/ssh"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report flag names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("flag")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "authorized_key", func(fl validator.FieldLevel) bool {
		_, err := Fingerprint(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "abspath", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return p == "" || path.IsAbs(p)
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String()) == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %s: %v", tag, err))
	}
}

// Struct validates s using its validate tags and flattens the result into
// one readable error.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, message(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	case "authorized_key":
		return fmt.Sprintf("%s is not a valid public key", name)
	case "abspath":
		return fmt.Sprintf("%s must be an absolute path", name)
	case "username":
		return fmt.Sprintf("%s: invalid username %q", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// Username rejects empty names and names the server could never match.
func Username(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("username is required")
	}
	if strings.ContainsAny(s, "/\\ \t\r\n") {
		return errors.New("invalid username")
	}
	return nil
}

// Fingerprint parses an authorized_keys line and returns its SHA256 fingerprint.
func Fingerprint(key string) (string, error) {
	pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key))
	if err != nil {
		return "", err
	}
	return ssh.FingerprintSHA256(pk), nil
}
