// README: Shift handlers: intake, lookup, matching, cancellation, history.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/types"
)

type ShiftHandler struct {
	shifts *shift.Service
}

func NewShiftHandler(svc *shift.Service) *ShiftHandler {
	return &ShiftHandler{shifts: svc}
}

type createShiftReq struct {
	OrgID             string    `json:"org_id"`
	BranchID          *string   `json:"branch_id"`
	VisitID           string    `json:"visit_id"`
	ClientID          string    `json:"client_id"`
	ServiceType       string    `json:"service_type"`
	Date              time.Time `json:"date"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Requirements      []reqView `json:"requirements"`
	PreferredLanguage string    `json:"preferred_language"`
	PreferredGender   string    `json:"preferred_gender"`
	MaxDistanceMiles  *float64  `json:"max_distance_miles"`
	Lat               *float64  `json:"lat"`
	Lng               *float64  `json:"lng"`
	State             string    `json:"state"`
	Urgent            bool      `json:"urgent"`
	BlockedWorkerIDs  []string  `json:"blocked_worker_ids"`
}

func (h *ShiftHandler) Create(c *gin.Context) {
	var req createShiftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := shift.CreateShiftCommand{
		OrgID:             types.ID(req.OrgID),
		VisitID:           types.ID(req.VisitID),
		ClientID:          types.ID(req.ClientID),
		ServiceType:       req.ServiceType,
		Date:              req.Date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		PreferredLanguage: req.PreferredLanguage,
		PreferredGender:   req.PreferredGender,
		MaxDistanceMiles:  req.MaxDistanceMiles,
		State:             req.State,
		Urgent:            req.Urgent,
	}
	if req.BranchID != nil {
		b := types.ID(*req.BranchID)
		cmd.BranchID = &b
	}
	if req.Lat != nil && req.Lng != nil {
		cmd.Location = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	for _, r := range req.Requirements {
		cmd.Requirements = append(cmd.Requirements, matching.Requirement{
			Name:      r.Name,
			Kind:      matching.RequirementKind(r.Kind),
			Mandatory: r.Mandatory,
		})
	}
	for _, id := range req.BlockedWorkerIDs {
		cmd.BlockedWorkerIDs = append(cmd.BlockedWorkerIDs, types.ID(id))
	}

	sh, err := h.shifts.CreateShift(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShiftView(sh))
}

func (h *ShiftHandler) Get(c *gin.Context) {
	sh, err := h.shifts.GetShift(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShiftView(sh))
}

func (h *ShiftHandler) Cancel(c *gin.Context) {
	if err := h.shifts.CancelShift(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(shift.StatusCancelled)})
}

type matchShiftReq struct {
	ConfigID      *string `json:"config_id"`
	MaxCandidates int     `json:"max_candidates"`
	AutoPropose   bool    `json:"auto_propose"`
}

func (h *ShiftHandler) Match(c *gin.Context) {
	var req matchShiftReq
	// body is optional; defaults run a plain attempt
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}

	cmd := shift.MatchCommand{
		ShiftID:       types.ID(c.Param("id")),
		MaxCandidates: req.MaxCandidates,
		AutoPropose:   req.AutoPropose,
	}
	if req.ConfigID != nil {
		id := types.ID(*req.ConfigID)
		cmd.ConfigID = &id
	}

	res, err := h.shifts.MatchShift(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	proposals := make([]proposalView, 0, len(res.Proposals))
	for _, p := range res.Proposals {
		proposals = append(proposals, toProposalView(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"shift_id":   string(res.ShiftID),
		"attempt":    res.Attempt,
		"outcome":    string(res.Outcome),
		"config_id":  string(res.ConfigID),
		"candidates": toCandidateViews(res.Candidates),
		"eligible":   toCandidateViews(res.Eligible),
		"proposals":  proposals,
	})
}

type historyView struct {
	ID              string    `json:"id"`
	AttemptNumber   int       `json:"attempt_number,omitempty"`
	Outcome         string    `json:"outcome"`
	ConfigID        *string   `json:"config_id,omitempty"`
	ProposalID      *string   `json:"proposal_id,omitempty"`
	WorkerID        *string   `json:"worker_id,omitempty"`
	EligibleCount   int       `json:"eligible_count"`
	IneligibleCount int       `json:"ineligible_count"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (h *ShiftHandler) History(c *gin.Context) {
	records, err := h.shifts.History(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]historyView, 0, len(records))
	for _, r := range records {
		out = append(out, historyView{
			ID:              string(r.ID),
			AttemptNumber:   r.AttemptNumber,
			Outcome:         string(r.Outcome),
			ConfigID:        idString(r.ConfigID),
			ProposalID:      idString(r.ProposalID),
			WorkerID:        idString(r.WorkerID),
			EligibleCount:   r.EligibleCount,
			IneligibleCount: r.IneligibleCount,
			Notes:           r.Notes,
			CreatedAt:       r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

func idString(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
