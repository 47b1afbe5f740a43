package candidate

import "google.golang.org/genai"

// ResponseSchema describes Record for structured output requests.
func ResponseSchema() *genai.Schema {
	minScore := float64(MinMatchScore)
	maxScore := float64(MaxMatchScore)
	minYears := float64(0)

	str := func(description string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: description}
	}
	list := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: description,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"full_name":      str("Candidate full name or N/A"),
			"email":          str("Primary email address or N/A"),
			"contact_number": str("Primary phone number or N/A"),
			"linkedin_url":   str("LinkedIn profile URL or N/A"),
			"gender": {
				Type:   genai.TypeString,
				Format: "enum",
				Enum:   Genders(),
			},
			"date_of_birth": str("Date of birth as YYYY-MM-DD or N/A"),
			"years_of_experience": {
				Type:    genai.TypeInteger,
				Minimum: &minYears,
			},
			"personal_skills":     list("Soft skills, languages and similar"),
			"professional_skills": list("Technical skills, tools and certifications"),
			"experience_summary":  str("Summary of work experience and education"),
			"match_score": {
				Type:    genai.TypeInteger,
				Minimum: &minScore,
				Maximum: &maxScore,
			},
			"ranking_category": {
				Type:   genai.TypeString,
				Format: "enum",
				Enum:   Rankings(),
			},
			"ranking_reason":     str("Reasoning for the score and category"),
			"job_location":       str("Job location from the job description or N/A"),
			"job_position_title": str("Job position title from the job description or N/A"),
		},
		Required:         Fields(),
		PropertyOrdering: Fields(),
	}
}
