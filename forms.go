package taskwell

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/taskwell/taskwell/utils"
)

var decoder = schema.NewDecoder()

const maxRequestBytes = 1024 * 1024

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("name")
}

// DecodeAndValidateForm takes the passed in form and attempts to parse and
// validate it from the URL query parameters of the passed in request
func DecodeAndValidateForm(form any, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	if err := decoder.Decode(form, r.Form); err != nil {
		return err
	}

	return utils.Validate(form)
}

// DecodeAndValidateJSON takes the passed in envelope and tries to unmarshal it
// from the body of the passed in request, then validates it
func DecodeAndValidateJSON(envelope any, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	defer r.Body.Close()
	if err != nil {
		return fmt.Errorf("unable to read request body: %w", err)
	}

	if err := json.Unmarshal(body, envelope); err != nil {
		return fmt.Errorf("unable to parse request JSON: %w", err)
	}

	return utils.Validate(envelope)
}
