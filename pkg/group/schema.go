package group

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/group.schema.json
var groupSchemaJSON []byte

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// groupSchema is the compiled JSON Schema for one group configuration.
var groupSchema *jsonschema.Schema

func init() {
	groupSchema = mustCompileSchema(groupSchemaJSON, "group.schema.json")
}

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateDocument checks one undecoded group (a value produced by
// encoding/json into an any) against the configuration schema. index is
// reported on every error.
func ValidateDocument(index int, doc any) ValidationErrors {
	err := groupSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ValidationErrors{{Index: index, Message: err.Error()}}
	}

	var errs ValidationErrors
	collectSchemaErrors(index, ve, &errs)
	return errs
}

// collectSchemaErrors recursively flattens validation error causes.
func collectSchemaErrors(index int, ve *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, ValidationError{
			Index:   index,
			Path:    strings.Join(ve.InstanceLocation, "/"),
			Message: ve.ErrorKind.LocalizedString(defaultPrinter),
		})
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(index, c, errs)
	}
}
