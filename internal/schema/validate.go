package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fpang/styleai/internal/wardrobe"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return wardrobe.Category(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return wardrobe.Gender(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("imagedatauri", func(fl validator.FieldLevel) bool {
		return CheckImageDataURI(fl.Field().String()) == nil
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateDescriptionInput checks a generate-description request.
func ValidateDescriptionInput(in DescriptionInput) error {
	return check(OpDescribe, KindInvalidInput, validate.Struct(in))
}

// ValidateDescriptionOutput checks the model answer and that the chosen
// category is one of the allowed categories.
func ValidateDescriptionOutput(out DescriptionOutput, allowed []wardrobe.Category) error {
	if err := check(OpDescribe, KindInvalidOutput, validate.Struct(out)); err != nil {
		return err
	}
	for _, c := range allowed {
		if out.Category == c {
			return nil
		}
	}
	return &Error{
		Kind:    KindInvalidOutput,
		Op:      OpDescribe,
		Message: fmt.Sprintf("category %q is not among %s", out.Category, strings.Join(wardrobe.CategoryNames(allowed), ", ")),
	}
}

// ValidateSuggestionInput checks a suggest-outfit request.
func ValidateSuggestionInput(in SuggestionInput) error {
	return check(OpSuggest, KindInvalidInput, validate.Struct(in))
}

// ValidateSuggestionOutput checks the suggest-outfit model answer.
func ValidateSuggestionOutput(out SuggestionOutput) error {
	return check(OpSuggest, KindInvalidOutput, validate.Struct(out))
}

// ValidateExtractionInput checks an extract-outfit-items request. Every
// wardrobe item must carry its store ID.
func ValidateExtractionInput(in ExtractionInput) error {
	return check(OpExtract, KindInvalidInput, validate.Struct(in))
}

// ValidateExtractionOutput checks the extract-outfit-items model answer.
func ValidateExtractionOutput(out ExtractionOutput) error {
	return check(OpExtract, KindInvalidOutput, validate.Struct(out))
}

// ValidateSummaryInput checks a summarize-wardrobe request.
func ValidateSummaryInput(in SummaryInput) error {
	return check(OpSummarize, KindInvalidInput, validate.Struct(in))
}

// ValidateSummaryOutput checks the summarize-wardrobe model answer.
func ValidateSummaryOutput(out SummaryOutput) error {
	return check(OpSummarize, KindInvalidOutput, validate.Struct(out))
}

// ValidateNewItem checks the fields of an item about to be stored.
func ValidateNewItem(item NewItem) error {
	return check("store-item", KindInvalidInput, validate.Struct(item))
}

// check converts validator output into a tagged *Error.
func check(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Kind: kind, Op: op, Err: err}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return &Error{Kind: kind, Op: op, Message: strings.Join(msgs, "; ")}
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "unique":
		return field + " must not contain duplicates"
	case "category":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(wardrobe.CategoryNames(wardrobe.Categories), ", "))
	case "gender":
		return field + " must be male or female"
	case "imagedatauri":
		s, _ := fe.Value().(string)
		return fmt.Sprintf("%s: %v", field, CheckImageDataURI(s))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
