package helpdesk

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/allears/helpdesk/pkg/hd/validation"
)

var nricPattern = regexp.MustCompile(`^[STFGM][0-9]{7}[A-Z]$`)

// SubmissionInput is the text part of a POST /submit payload.
type SubmissionInput struct {
	UserRole        string `form:"userRole" validate:"required,role"`
	OtherRole       string `form:"otherRole" validate:"max=200"`
	IssueType       string `form:"issueType" validate:"required,issue"`
	Description     string `form:"description" validate:"required,min=50,max=5000"`
	FullName        string `form:"fullName" validate:"required,max=200"`
	Email           string `form:"email" validate:"required,email,max=254"`
	ContactEmail    string `form:"contactEmail" validate:"required,email,max=254"`
	FormName        string `form:"formName" validate:"max=300"`
	FormURL         string `form:"formURL" validate:"omitempty,http_url,max=2048"`
	School          string `form:"school" validate:"max=200"`
	StudentRelated  bool   `form:"studentRelated"`
	StudentFullName string `form:"studentFullName" validate:"required_if=StudentRelated true,max=200"`
	StudentNRIC     string `form:"studentNRIC" validate:"required_if=StudentRelated true,nric"`
	StudentMIMS     string `form:"studentMIMS" validate:"required_if=StudentRelated true,max=100"`
	Acknowledged    bool   `form:"acknowledged"`
	ClickedFAQ      bool   `form:"clickedFAQ"`
}

// InputFromRequest reads the submission fields from a parsed form.
func InputFromRequest(r *http.Request) SubmissionInput {
	return SubmissionInput{
		UserRole:        r.FormValue("userRole"),
		OtherRole:       r.FormValue("otherRole"),
		IssueType:       r.FormValue("issueType"),
		Description:     r.FormValue("description"),
		FullName:        r.FormValue("fullName"),
		Email:           r.FormValue("email"),
		ContactEmail:    r.FormValue("contactEmail"),
		FormName:        r.FormValue("formName"),
		FormURL:         r.FormValue("formURL"),
		School:          r.FormValue("school"),
		StudentRelated:  formBool(r.FormValue("studentRelated")),
		StudentFullName: r.FormValue("studentFullName"),
		StudentNRIC:     r.FormValue("studentNRIC"),
		StudentMIMS:     r.FormValue("studentMIMS"),
		Acknowledged:    formBool(r.FormValue("acknowledged")),
		ClickedFAQ:      formBool(r.FormValue("clickedFAQ")),
	}
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// Normalize trims whitespace, lower-cases addresses and canonicalises enum values.
func (in *SubmissionInput) Normalize() {
	in.UserRole = strings.TrimSpace(in.UserRole)
	if r, ok := ParseRole(in.UserRole); ok {
		in.UserRole = string(r)
	}
	in.IssueType = strings.ToLower(strings.TrimSpace(in.IssueType))
	in.OtherRole = strings.TrimSpace(in.OtherRole)
	in.Description = strings.TrimSpace(in.Description)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ContactEmail = strings.ToLower(strings.TrimSpace(in.ContactEmail))
	in.FormName = strings.TrimSpace(in.FormName)
	in.FormURL = strings.TrimSpace(in.FormURL)
	in.School = strings.TrimSpace(in.School)
	in.StudentFullName = strings.TrimSpace(in.StudentFullName)
	in.StudentNRIC = strings.ToUpper(strings.TrimSpace(in.StudentNRIC))
	in.StudentMIMS = strings.TrimSpace(in.StudentMIMS)
	if in.UserRole != string(RoleOther) {
		in.OtherRole = ""
	}
	if !in.StudentRelated {
		in.StudentFullName, in.StudentNRIC, in.StudentMIMS = "", "", ""
	}
}

// Validator checks submission input server-side, regardless of what the page allowed.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with the helpdesk rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := ParseRole(fl.Field().String())
		return ok
	})
	v.RegisterValidation("issue", func(fl validator.FieldLevel) bool {
		_, ok := ParseIssue(fl.Field().String())
		return ok
	})
	v.RegisterValidation("nric", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || nricPattern.MatchString(s)
	})
	return &Validator{validate: v}
}

// Validate normalises in place and returns every rule violation keyed by form field.
func (v *Validator) Validate(in *SubmissionInput) validation.ValidationErrors {
	in.Normalize()

	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var errs validation.ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.AddError(validation.ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for student-related issues"
	case "min":
		if fe.Field() == "description" {
			return fmt.Sprintf("Issue description must be at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "http_url":
		return "must be a valid http(s) URL"
	case "role":
		return "must be one of school-staff, hq-staff, student, parent, other"
	case "issue":
		return "is not a known issue category"
	case "nric":
		return "must be a valid NRIC/FIN, e.g. S1234567D"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
