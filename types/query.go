package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const DataNotAvailable = "Data Not Available"

type Validater interface {
	Validate() map[string]string
}

type AskParams struct {
	Questions []string `json:"questions" validate:"required,min=1"`
}

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AskResponse struct {
	Message string   `json:"message"`
	Answers []QAPair `json:"answers"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = validator.New()

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *AskParams) Validate() map[string]string {
	if err := validate.Struct(params); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"params": err.Error()}
		}
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
