package notion

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/cv-screener/internal/candidate"
)

// Property names of the screening database.
const (
	propName               = "Name"
	propEmail              = "Email"
	propPhone              = "Phone"
	propLinkedin           = "Linkedin"
	propGender             = "Gender"
	propYOE                = "YOE"
	propProfileSummary     = "Profile Summary"
	propProfessionalSkills = "Professional Skills"
	propPersonalSkills     = "Personal Skills"
	propCVFile             = "CV File"
	propPositionTitle      = "Position Title"
	propLocation           = "Location"
	propMatchScore         = "Match Score"
	propRankingCategory    = "Ranking Category"
	propRankingReason      = "AI Ranking Reason"
	propProcessingDate     = "Processing Date"
	propStatus             = "Status"
	propDOB                = "DOB"
)

// maxTextLength is the limit of a single rich text object.
const maxTextLength = 2000

func (c *Client) properties(r *candidate.Record, fileUploadID string) map[string]any {
	props := map[string]any{
		propName:               map[string]any{"title": richText(r.FullName)},
		propEmail:              map[string]any{"email": r.Email},
		propPhone:              map[string]any{"phone_number": r.ContactNumber},
		propLinkedin:           map[string]any{"url": r.LinkedinURL},
		propGender:             selectValue(string(r.Gender)),
		propYOE:                map[string]any{"number": r.YearsOfExperience},
		propProfileSummary:     map[string]any{"rich_text": richText(r.ExperienceSummary)},
		propProfessionalSkills: map[string]any{"multi_select": multiSelect(r.ProfessionalSkills)},
		propPersonalSkills:     map[string]any{"multi_select": multiSelect(r.PersonalSkills)},
		propCVFile: map[string]any{"files": []map[string]any{{
			"type":        "file_upload",
			"file_upload": map[string]any{"id": fileUploadID},
		}}},
		propPositionTitle:   selectValue(r.JobPositionTitle),
		propLocation:        selectValue(r.JobLocation),
		propMatchScore:      map[string]any{"number": r.MatchScore},
		propRankingCategory: selectValue(string(r.RankingCategory)),
		propRankingReason:   map[string]any{"rich_text": richText(r.RankingReason)},
		propProcessingDate:  map[string]any{"date": map[string]any{"start": c.now().In(c.location).Format(time.RFC3339)}},
		propStatus:          map[string]any{"status": map[string]any{"name": StatusProcessedByAI}},
	}

	if r.HasDateOfBirth() {
		props[propDOB] = map[string]any{"date": map[string]any{"start": strings.TrimSpace(r.DateOfBirth)}}
	}

	return props
}

// richText splits s into text objects no longer than maxTextLength runes.
func richText(s string) []map[string]any {
	chunks := make([]map[string]any, 0, 1)
	for _, chunk := range splitRunes(s, maxTextLength) {
		chunks = append(chunks, map[string]any{"text": map[string]any{"content": chunk}})
	}
	return chunks
}

func splitRunes(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}

	var parts []string
	runes := []rune(s)
	for len(runes) > limit {
		parts = append(parts, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// Select option names may not contain commas.
func selectName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

func selectValue(s string) map[string]any {
	name := selectName(s)
	if name == "" {
		return map[string]any{"select": nil}
	}
	return map[string]any{"select": map[string]any{"name": name}}
}

func multiSelect(values []string) []map[string]any {
	options := make([]map[string]any, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		name := selectName(v)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		options = append(options, map[string]any{"name": name})
	}
	return options
}
