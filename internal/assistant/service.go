package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Service turns free-form conversation into structured certificate-request
// data using an external completion capability. Transport failures surface as
// ErrServiceUnavailable; malformed completion content degrades to fallback
// values and never reaches callers as an error.
type Service struct {
	Completer Completer
}

// ExtractedInfo is the partial request the assistant pulled out of a
// conversation. Fields the model could not determine are nil.
type ExtractedInfo struct {
	StudentName      *string  `json:"studentName"`
	UniversityName   *string  `json:"universityName"`
	YearOfGraduation *int     `json:"yearOfGraduation"`
	Degree           *string  `json:"degree"`
	Major            *string  `json:"major"`
	Skills           []string `json:"skills"`
}

// Analysis is the structured review of a certificate request. Callers always
// receive a structurally valid value, even when the model's output could not
// be parsed.
type Analysis struct {
	VerificationScore   int             `json:"verification_score"`
	Completeness        AnalysisSection `json:"completeness"`
	Consistency         AnalysisSection `json:"consistency"`
	Validity            AnalysisSection `json:"validity"`
	OverallAssessment   string          `json:"overall_assessment"`
	ApprovalRecommended bool            `json:"approval_recommended"`
}

// AnalysisSection scores one aspect of the request. Exactly one of the list
// fields is populated per aspect (missing_fields, issues, or concerns).
type AnalysisSection struct {
	Score           int      `json:"score"`
	MissingFields   []string `json:"missing_fields,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	Concerns        []string `json:"concerns,omitempty"`
	Recommendations []string `json:"recommendations"`
}

var fallbackSkills = []string{"Problem solving", "Critical thinking", "Communication"}

const chatFallbackReply = "I apologize, but I encountered an issue processing your request. Let's try again."

const extractSystemPrompt = `Extract certificate information from the following conversation.
Return a JSON object with these fields:
{
  "studentName": string,
  "universityName": string,
  "yearOfGraduation": number,
  "degree": string,
  "major": string,
  "skills": array of strings
}

If any field is missing or uncertain, set it to null.`

const analyzeSystemPrompt = `You are a certificate verification assistant specialized in academic credentials.
Analyze the following certificate request for validity, completeness, and consistency.
Respond with a JSON object that has the following structure:
{
  "verification_score": number from 0-100,
  "completeness": {
    "score": number from 0-100,
    "missing_fields": array of strings with any missing fields,
    "recommendations": array of strings with suggestions
  },
  "consistency": {
    "score": number from 0-100,
    "issues": array of strings describing any inconsistencies,
    "recommendations": array of strings with suggestions
  },
  "validity": {
    "score": number from 0-100,
    "concerns": array of strings with potential validity issues,
    "recommendations": array of strings with suggestions
  },
  "overall_assessment": string describing overall assessment,
  "approval_recommended": boolean indicating if the certificate should be approved
}`

const skillsSystemPrompt = `You are an academic advisor with expertise in skills assessment.
Based on the degree and major provided, suggest relevant skills that would typically
be acquired during such a program. Respond with a JSON array of strings.`

// ExtractInfo pulls request fields out of a conversation. A completion with
// no parsable JSON yields (nil, nil): not enough information yet, keep
// conversing.
func (s *Service) ExtractInfo(ctx context.Context, conversation []Message) (*ExtractedInfo, error) {
	convJSON, err := json.Marshal(conversation)
	if err != nil {
		return nil, err
	}
	content, err := s.Completer.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: extractSystemPrompt},
			{Role: "user", Content: "Extract certificate information from this conversation:\n\n" + string(convJSON)},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	span := extractJSON(content)
	if span == "" {
		return nil, nil
	}
	var info ExtractedInfo
	if err := json.Unmarshal([]byte(span), &info); err != nil {
		log.Debug().Err(err).Msg("Extraction miss: completion JSON did not decode")
		return nil, nil
	}
	return &info, nil
}

// SuggestSkills proposes skills for a degree/major pair. Skills are a soft
// recommendation: any failure degrades to a fixed fallback list.
func (s *Service) SuggestSkills(ctx context.Context, degree, major string) []string {
	content, err := s.Completer.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: skillsSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Suggest relevant skills for a %s in %s.", degree, major)},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil || content == "" {
		return fallbackSkills
	}

	if span := extractJSON(content); span != "" {
		var skills []string
		if err := json.Unmarshal([]byte(span), &skills); err == nil && len(skills) > 0 {
			return skills
		}
	}
	// Plain-text answer: treat it as a comma-separated list.
	parts := strings.Split(content, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			skills = append(skills, t)
		}
	}
	if len(skills) == 0 {
		return fallbackSkills
	}
	return skills
}

// AnalyzeRequest reviews a request for completeness, consistency and
// validity. Unparsable model output yields a degraded mid-range result noting
// the failure, never an error.
func (s *Service) AnalyzeRequest(ctx context.Context, requestData interface{}) (*Analysis, error) {
	dataJSON, err := json.Marshal(requestData)
	if err != nil {
		return nil, err
	}
	content, err := s.Completer.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: analyzeSystemPrompt},
			{Role: "user", Content: "Analyze this certificate request:\n\n" + string(dataJSON)},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	if span := extractJSON(content); span != "" {
		var analysis Analysis
		if err := json.Unmarshal([]byte(span), &analysis); err == nil {
			return &analysis, nil
		}
	}
	log.Debug().Msg("Analysis completion did not contain parsable JSON, returning degraded result")
	return degradedAnalysis(content), nil
}

func degradedAnalysis(content string) *Analysis {
	note := content
	if note == "" {
		note = "No analysis available"
	}
	return &Analysis{
		VerificationScore: 50,
		Completeness: AnalysisSection{
			Score:           50,
			MissingFields:   []string{"Failed to parse structured analysis"},
			Recommendations: []string{"Please check all required fields are provided"},
		},
		Consistency: AnalysisSection{
			Score:           50,
			Issues:          []string{note},
			Recommendations: []string{"Review all certificate details for consistency"},
		},
		Validity: AnalysisSection{
			Score:           50,
			Concerns:        []string{"Failed to parse structured analysis"},
			Recommendations: []string{"Verify educational credentials with issuing institution"},
		},
		OverallAssessment:   "Analysis inconclusive due to parsing error",
		ApprovalRecommended: false,
	}
}

// Chat continues a conversational intake with a student. The system prompt is
// prepended on every call so the client only ships user/assistant turns.
func (s *Service) Chat(ctx context.Context, conversation []Message, studentAddress string) (string, error) {
	systemPrompt := fmt.Sprintf(`You are a helpful assistant for SoulCertify, a blockchain-based certificate verification platform.
You're helping a student submit a certificate request. The student's wallet address is %s.
Collect the following information:
- Student's full name
- University/Institution name
- Year of graduation
- Degree title
- Major/Field of study
- Skills gained (comma-separated list)

Be conversational but efficient in collecting this information. Once you have all the required information,
summarize it and ask the student to confirm before submitting.`, studentAddress)

	messages := make([]Message, 0, len(conversation)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, conversation...)

	content, err := s.Completer.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		return chatFallbackReply, nil
	}
	return content, nil
}
