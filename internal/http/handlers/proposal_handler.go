// README: Proposal handlers: create, respond, mark viewed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/types"
)

type ProposalHandler struct {
	shifts *shift.Service
}

func NewProposalHandler(svc *shift.Service) *ProposalHandler {
	return &ProposalHandler{shifts: svc}
}

type createProposalReq struct {
	ShiftID  string `json:"shift_id"`
	WorkerID string `json:"worker_id"`
	Notify   bool   `json:"notify"`
}

// Create issues a coordinator-driven proposal for a specific worker.
func (h *ProposalHandler) Create(c *gin.Context) {
	var req createProposalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ShiftID == "" || req.WorkerID == "" {
		writeError(c, http.StatusBadRequest, "shift_id and worker_id are required")
		return
	}

	p, err := h.shifts.CreateProposal(c.Request.Context(), shift.CreateProposalCommand{
		ShiftID:  types.ID(req.ShiftID),
		WorkerID: types.ID(req.WorkerID),
		Method:   shift.MethodAutomatic,
		Notify:   req.Notify,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProposalView(p))
}

func (h *ProposalHandler) Get(c *gin.Context) {
	p, err := h.shifts.GetProposal(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProposalView(p))
}

type respondReq struct {
	Accept          bool   `json:"accept"`
	RejectionReason string `json:"rejection_reason"`
}

func (h *ProposalHandler) Respond(c *gin.Context) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	err := h.shifts.RespondToProposal(c.Request.Context(), shift.RespondCommand{
		ProposalID:      types.ID(c.Param("id")),
		Accept:          req.Accept,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	p, err := h.shifts.GetProposal(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProposalView(p))
}

func (h *ProposalHandler) MarkViewed(c *gin.Context) {
	if err := h.shifts.MarkProposalViewed(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(shift.ProposalViewed)})
}
