package handler

import (
	"net/http"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentialsForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=128"`
}

type usernameForm struct {
	NewUsername string `validate:"required,max=64"`
}

type passwordForm struct {
	NewPassword string `validate:"required,max=128"`
}

func parseCredentials(r *http.Request) (credentialsForm, error) {
	if err := r.ParseForm(); err != nil {
		return credentialsForm{}, err
	}
	f := credentialsForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	return f, validate.Struct(f)
}

// pageData adds the values the layout needs to data.
func pageData(r *http.Request, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	data["Authenticated"] = auth.IsAuthenticated(r.Context())
	return data
}
