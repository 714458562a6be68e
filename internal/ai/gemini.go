// README: Gemini-backed narrative summaries for match attempt history notes.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"shiftmatch/internal/modules/matching"
)

// GeminiExplainer turns a finished match attempt into a short plain-language
// note for the audit trail. Optional: the orchestrator falls back to a counted
// summary when no explainer is wired.
type GeminiExplainer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiExplainer initializes a Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiExplainer(ctx context.Context, apiKey string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.2)

	return &GeminiExplainer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (e *GeminiExplainer) Close() {
	e.client.Close()
}

// ExplainMatchAttempt summarizes the ranked candidate list in two or three
// sentences a scheduling coordinator can read at a glance.
func (e *GeminiExplainer) ExplainMatchAttempt(ctx context.Context, req matching.ShiftRequest, candidates []matching.MatchCandidate) (string, error) {
	resp, err := e.model.GenerateContent(ctx, genai.Text(buildAttemptPrompt(req, candidates)))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func buildAttemptPrompt(req matching.ShiftRequest, candidates []matching.MatchCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Role: You summarize caregiver matching results for home-care scheduling coordinators.
Write 2-3 plain sentences: how many caregivers were considered, why the top candidates fit or why nobody did. No markdown, no bullet points, no caregiver IDs.

Shift: client %s on %s, %s-%s`,
		req.ClientID,
		req.Date.Format("2006-01-02"),
		req.StartTime.Format("15:04"),
		req.EndTime.Format("15:04"))
	if len(req.Requirements) > 0 {
		names := make([]string, len(req.Requirements))
		for i, r := range req.Requirements {
			names[i] = r.Name
		}
		fmt.Fprintf(&b, ", requires %s", strings.Join(names, ", "))
	}
	b.WriteString("\n\nCandidates (best first):\n")
	for i, c := range candidates {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(candidates)-i)
			break
		}
		fmt.Fprintf(&b, "- %s: score %.0f (%s), eligible=%v", c.WorkerName, c.OverallScore, c.Quality, c.IsEligible)
		if len(c.EligibilityIssues) > 0 {
			fmt.Fprintf(&b, ", issues: %s", strings.Join(c.EligibilityIssues, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
