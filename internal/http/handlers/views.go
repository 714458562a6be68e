// README: JSON view types shared by the handlers.
package handlers

import (
	"time"

	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/modules/shift"
)

type candidateView struct {
	WorkerID          string   `json:"worker_id"`
	WorkerName        string   `json:"worker_name"`
	OverallScore      float64  `json:"overall_score"`
	Quality           string   `json:"quality"`
	IsEligible        bool     `json:"is_eligible"`
	EligibilityIssues []string `json:"eligibility_issues,omitempty"`
	MatchReasons      []string `json:"match_reasons,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	Reliability       float64  `json:"reliability"`
	RecentRejections  int      `json:"recent_rejections"`
	DistanceMiles     *float64 `json:"distance_miles,omitempty"`
}

func toCandidateView(c matching.MatchCandidate) candidateView {
	return candidateView{
		WorkerID:          string(c.WorkerID),
		WorkerName:        c.WorkerName,
		OverallScore:      c.OverallScore,
		Quality:           string(c.Quality),
		IsEligible:        c.IsEligible,
		EligibilityIssues: c.EligibilityIssues,
		MatchReasons:      c.MatchReasons,
		Warnings:          c.Warnings,
		Reliability:       c.Reliability,
		RecentRejections:  c.RecentRejections,
		DistanceMiles:     c.DistanceMiles,
	}
}

func toCandidateViews(cs []matching.MatchCandidate) []candidateView {
	out := make([]candidateView, len(cs))
	for i, c := range cs {
		out[i] = toCandidateView(c)
	}
	return out
}

type proposalView struct {
	ID              string     `json:"id"`
	ShiftID         string     `json:"shift_id"`
	WorkerID        string     `json:"worker_id"`
	ConfigID        string     `json:"config_id"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	Score           float64    `json:"score"`
	Quality         string     `json:"quality"`
	MatchReasons    []string   `json:"match_reasons,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	ViewedAt        *time.Time `json:"viewed_at,omitempty"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toProposalView(p *shift.AssignmentProposal) proposalView {
	return proposalView{
		ID:              string(p.ID),
		ShiftID:         string(p.ShiftID),
		WorkerID:        string(p.WorkerID),
		ConfigID:        string(p.ConfigID),
		Method:          string(p.Method),
		Status:          string(p.Status),
		Score:           p.Score,
		Quality:         string(p.Quality),
		MatchReasons:    p.MatchReasons,
		SentAt:          p.SentAt,
		ViewedAt:        p.ViewedAt,
		RespondedAt:     p.RespondedAt,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
	}
}

type shiftView struct {
	ID                string     `json:"id"`
	OrgID             string     `json:"org_id"`
	BranchID          *string    `json:"branch_id,omitempty"`
	VisitID           string     `json:"visit_id"`
	ClientID          string     `json:"client_id"`
	ServiceType       string     `json:"service_type"`
	Date              time.Time  `json:"date"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	State             string     `json:"state"`
	Urgent            bool       `json:"urgent"`
	MatchingStatus    string     `json:"matching_status"`
	MatchAttempts     int        `json:"match_attempts"`
	PreferredLanguage string     `json:"preferred_language,omitempty"`
	PreferredGender   string     `json:"preferred_gender,omitempty"`
	MaxDistanceMiles  *float64   `json:"max_distance_miles,omitempty"`
	Requirements      []reqView  `json:"requirements,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type reqView struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Mandatory bool   `json:"mandatory"`
}

func toShiftView(s *shift.OpenShift) shiftView {
	v := shiftView{
		ID:                string(s.ID),
		OrgID:             string(s.OrgID),
		VisitID:           string(s.VisitID),
		ClientID:          string(s.ClientID),
		ServiceType:       s.ServiceType,
		Date:              s.Date,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		State:             s.State,
		Urgent:            s.Urgent,
		MatchingStatus:    string(s.MatchingStatus),
		MatchAttempts:     s.MatchAttempts,
		PreferredLanguage: s.PreferredLanguage,
		PreferredGender:   s.PreferredGender,
		MaxDistanceMiles:  s.MaxDistanceMiles,
		CreatedAt:         s.CreatedAt,
	}
	if s.BranchID != nil {
		b := string(*s.BranchID)
		v.BranchID = &b
	}
	for _, r := range s.Requirements {
		v.Requirements = append(v.Requirements, reqView{
			Name:      r.Name,
			Kind:      string(r.Kind),
			Mandatory: r.Mandatory,
		})
	}
	return v
}
