package candidate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// NotAvailable is the value the extraction service uses for missing data.
const NotAvailable = "N/A"

// Gender values accepted in a Record.
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = NotAvailable
)

// Ranking is the fit category assigned together with the match score.
type Ranking string

const (
	RankingNoFit  Ranking = "No Fit"
	RankingHigh   Ranking = "High Fit"
	RankingMedium Ranking = "Medium Fit"
	RankingLow    Ranking = "Low Fit"
)

// Genders lists the allowed gender values in schema order.
func Genders() []string {
	return []string{string(GenderMale), string(GenderFemale), string(GenderUnknown)}
}

// Rankings lists the allowed ranking categories in schema order.
func Rankings() []string {
	return []string{string(RankingNoFit), string(RankingHigh), string(RankingMedium), string(RankingLow)}
}

const (
	MinMatchScore = 0
	MaxMatchScore = 100
)

// Record is the structured profile extracted from one CV against one job description.
type Record struct {
	FullName           string   `json:"full_name"`
	Email              string   `json:"email"`
	ContactNumber      string   `json:"contact_number"`
	LinkedinURL        string   `json:"linkedin_url"`
	Gender             Gender   `json:"gender"`
	DateOfBirth        string   `json:"date_of_birth"`
	YearsOfExperience  int      `json:"years_of_experience"`
	PersonalSkills     []string `json:"personal_skills"`
	ProfessionalSkills []string `json:"professional_skills"`
	ExperienceSummary  string   `json:"experience_summary"`
	MatchScore         int      `json:"match_score"`
	RankingCategory    Ranking  `json:"ranking_category"`
	RankingReason      string   `json:"ranking_reason"`
	JobLocation        string   `json:"job_location"`
	JobPositionTitle   string   `json:"job_position_title"`
}

// Fields returns the record field names in schema order. Used as export headers.
func Fields() []string {
	return []string{
		"full_name",
		"email",
		"contact_number",
		"linkedin_url",
		"gender",
		"date_of_birth",
		"years_of_experience",
		"personal_skills",
		"professional_skills",
		"experience_summary",
		"match_score",
		"ranking_category",
		"ranking_reason",
		"job_location",
		"job_position_title",
	}
}

// Values returns the record as strings in Fields order. List fields are joined with ", ".
func (r *Record) Values() []string {
	return []string{
		r.FullName,
		r.Email,
		r.ContactNumber,
		r.LinkedinURL,
		string(r.Gender),
		r.DateOfBirth,
		fmt.Sprintf("%d", r.YearsOfExperience),
		strings.Join(r.PersonalSkills, ", "),
		strings.Join(r.ProfessionalSkills, ", "),
		r.ExperienceSummary,
		fmt.Sprintf("%d", r.MatchScore),
		string(r.RankingCategory),
		r.RankingReason,
		r.JobLocation,
		r.JobPositionTitle,
	}
}

// Known reports whether value is neither empty nor N/A.
func Known(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != NotAvailable
}

// HasDateOfBirth reports whether the date of birth is known.
func (r *Record) HasDateOfBirth() bool {
	return Known(r.DateOfBirth)
}

var dateOfBirthPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks the record against the fixed schema and reports every
// violation at once. The ranking category is not cross-checked against the score.
func (r *Record) Validate() error {
	if r == nil {
		return &SchemaValidationError{Err: fmt.Errorf("record is empty")}
	}

	var err error
	if !contains(Genders(), string(r.Gender)) {
		err = multierr.Append(err, fmt.Errorf("gender %q is not one of %s", r.Gender, strings.Join(Genders(), ", ")))
	}
	if !contains(Rankings(), string(r.RankingCategory)) {
		err = multierr.Append(err, fmt.Errorf("ranking_category %q is not one of %s", r.RankingCategory, strings.Join(Rankings(), ", ")))
	}
	if r.MatchScore < MinMatchScore || r.MatchScore > MaxMatchScore {
		err = multierr.Append(err, fmt.Errorf("match_score %d is outside [%d, %d]", r.MatchScore, MinMatchScore, MaxMatchScore))
	}
	if r.YearsOfExperience < 0 {
		err = multierr.Append(err, fmt.Errorf("years_of_experience %d is negative", r.YearsOfExperience))
	}
	if r.HasDateOfBirth() && !dateOfBirthPattern.MatchString(strings.TrimSpace(r.DateOfBirth)) {
		err = multierr.Append(err, fmt.Errorf("date_of_birth %q is not YYYY-MM-DD or %s", r.DateOfBirth, NotAvailable))
	}

	if err != nil {
		return &SchemaValidationError{Err: err}
	}
	return nil
}

// SchemaValidationError reports a payload that does not conform to the Record schema.
type SchemaValidationError struct {
	Err error
}

func (e *SchemaValidationError) Error() string {
	if e.Err == nil {
		return "schema validation failed"
	}
	return "schema validation failed: " + e.Err.Error()
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// Problems lists the individual violations.
func (e *SchemaValidationError) Problems() []string {
	errs := multierr.Errors(e.Err)
	problems := make([]string, 0, len(errs))
	for _, err := range errs {
		problems = append(problems, err.Error())
	}
	return problems
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
