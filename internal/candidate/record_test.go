package candidate

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validRecord() Record {
	return Record{
		FullName:           "Jane Doe",
		Email:              "jane@example.com",
		ContactNumber:      "+1 555 0100",
		LinkedinURL:        "https://www.linkedin.com/in/jane",
		Gender:             GenderFemale,
		DateOfBirth:        "1990-04-01",
		YearsOfExperience:  7,
		PersonalSkills:     []string{"Communication"},
		ProfessionalSkills: []string{"Go", "Kubernetes"},
		ExperienceSummary:  "Backend engineer",
		MatchScore:         82,
		RankingCategory:    RankingHigh,
		RankingReason:      "Strong match",
		JobLocation:        "Remote",
		JobPositionTitle:   "Backend Engineer",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(r *Record)
		problems int
	}{
		{name: "valid", mutate: func(*Record) {}},
		{name: "unknown dob", mutate: func(r *Record) { r.DateOfBirth = NotAvailable }},
		{name: "score boundaries", mutate: func(r *Record) { r.MatchScore = 100 }},
		{name: "score above range", mutate: func(r *Record) { r.MatchScore = 101 }, problems: 1},
		{name: "negative score", mutate: func(r *Record) { r.MatchScore = -1 }, problems: 1},
		{name: "bad gender", mutate: func(r *Record) { r.Gender = "Other" }, problems: 1},
		{name: "bad ranking", mutate: func(r *Record) { r.RankingCategory = "Great" }, problems: 1},
		{name: "negative experience", mutate: func(r *Record) { r.YearsOfExperience = -2 }, problems: 1},
		{name: "bad dob format", mutate: func(r *Record) { r.DateOfBirth = "01/04/1990" }, problems: 1},
		{
			name: "all problems reported at once",
			mutate: func(r *Record) {
				r.Gender = ""
				r.RankingCategory = ""
				r.MatchScore = 400
			},
			problems: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := validRecord()
			tt.mutate(&r)

			err := r.Validate()
			if tt.problems == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var schemaErr *SchemaValidationError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaValidationError, got %v", err)
			}
			if got := len(schemaErr.Problems()); got != tt.problems {
				t.Fatalf("expected %d problems, got %d: %v", tt.problems, got, schemaErr.Problems())
			}
		})
	}
}

func TestValuesFollowFields(t *testing.T) {
	r := validRecord()
	values := r.Values()

	if len(values) != len(Fields()) {
		t.Fatalf("expected %d values, got %d", len(Fields()), len(values))
	}

	want := []string{"Jane Doe", "jane@example.com"}
	if diff := cmp.Diff(want, values[:2]); diff != "" {
		t.Fatalf("unexpected leading values (-want +got):\n%s", diff)
	}
	if values[8] != "Go, Kubernetes" {
		t.Fatalf("expected joined professional skills, got %q", values[8])
	}
}

func TestKnown(t *testing.T) {
	for _, value := range []string{"", "  ", NotAvailable, " N/A "} {
		if Known(value) {
			t.Fatalf("expected %q to be treated as missing", value)
		}
	}

	if !Known("a@b.c") {
		t.Fatalf("expected email to be usable")
	}

	r := Record{DateOfBirth: NotAvailable}
	if r.HasDateOfBirth() {
		t.Fatalf("expected N/A date of birth to be unknown")
	}
}

func TestResponseSchemaCoversFields(t *testing.T) {
	schema := ResponseSchema()

	for _, field := range Fields() {
		if _, ok := schema.Properties[field]; !ok {
			t.Fatalf("schema is missing property %q", field)
		}
	}

	if diff := cmp.Diff(Rankings(), schema.Properties["ranking_category"].Enum); diff != "" {
		t.Fatalf("unexpected ranking enum (-want +got):\n%s", diff)
	}

	if got := strings.Join(schema.Required, ","); got != strings.Join(Fields(), ",") {
		t.Fatalf("unexpected required fields: %s", got)
	}
}
