// README: Caregiver-facing handlers: shift feed and self-selection.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/types"
)

type CaregiverHandler struct {
	shifts *shift.Service
}

func NewCaregiverHandler(svc *shift.Service) *CaregiverHandler {
	return &CaregiverHandler{shifts: svc}
}

// AvailableShifts lists upcoming shifts the caregiver is live-eligible for,
// best match first.
func (h *CaregiverHandler) AvailableShifts(c *gin.Context) {
	available, err := h.shifts.GetAvailableShiftsForCaregiver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	type entry struct {
		Shift     shiftView     `json:"shift"`
		Candidate candidateView `json:"evaluation"`
	}
	out := make([]entry, 0, len(available))
	for _, a := range available {
		out = append(out, entry{Shift: toShiftView(a.Shift), Candidate: toCandidateView(a.Candidate)})
	}
	c.JSON(http.StatusOK, gin.H{"shifts": out})
}

type selectShiftReq struct {
	ShiftID string `json:"shift_id"`
}

// SelectShift handles a caregiver claiming a shift from the feed.
func (h *CaregiverHandler) SelectShift(c *gin.Context) {
	var req selectShiftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ShiftID == "" {
		writeError(c, http.StatusBadRequest, "shift_id is required")
		return
	}

	p, err := h.shifts.CaregiverSelectShift(c.Request.Context(), types.ID(c.Param("id")), types.ID(req.ShiftID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProposalView(p))
}
