// README: Matching configuration handlers: publish versions, resolve, fetch.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/types"
)

type ConfigHandler struct {
	configs *matchconfig.Service
}

func NewConfigHandler(svc *matchconfig.Service) *ConfigHandler {
	return &ConfigHandler{configs: svc}
}

type configBody struct {
	Name                      string  `json:"name"`
	OrgID                     string  `json:"org_id"`
	BranchID                  *string `json:"branch_id"`
	IsDefault                 bool    `json:"is_default"`
	WeightSkill               float64 `json:"weight_skill"`
	WeightLanguage            float64 `json:"weight_language"`
	WeightCompliance          float64 `json:"weight_compliance"`
	WeightDistance            float64 `json:"weight_distance"`
	WeightReliability         float64 `json:"weight_reliability"`
	WeightHistory             float64 `json:"weight_history"`
	WeightRejectionPenalty    float64 `json:"weight_rejection_penalty"`
	CutoffExcellent           float64 `json:"cutoff_excellent"`
	CutoffGood                float64 `json:"cutoff_good"`
	CutoffFair                float64 `json:"cutoff_fair"`
	MinScoreForProposal       float64 `json:"min_score_for_proposal"`
	AutoAcceptMinScore        float64 `json:"auto_accept_min_score"`
	MaxProposalsPerShift      int     `json:"max_proposals_per_shift"`
	ProposalExpirationMinutes int     `json:"proposal_expiration_minutes"`
	MaxWeeklyHours            float64 `json:"max_weekly_hours"`
	IncludeTravelBuffer       bool    `json:"include_travel_buffer"`
}

type configView struct {
	configBody
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Publish stores a new configuration version; prior versions of the same name
// are deactivated but kept for proposals that pinned them.
func (h *ConfigHandler) Publish(c *gin.Context) {
	var req configBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cfg := matchconfig.Configuration{
		Name:      req.Name,
		OrgID:     types.ID(req.OrgID),
		IsDefault: req.IsDefault,
		Weights: matchconfig.Weights{
			SkillMatch:       req.WeightSkill,
			LanguageMatch:    req.WeightLanguage,
			Compliance:       req.WeightCompliance,
			Distance:         req.WeightDistance,
			Reliability:      req.WeightReliability,
			History:          req.WeightHistory,
			RejectionPenalty: req.WeightRejectionPenalty,
		},
		QualityCutoffs: matchconfig.QualityCutoffs{
			Excellent: req.CutoffExcellent,
			Good:      req.CutoffGood,
			Fair:      req.CutoffFair,
		},
		MinScoreForProposal:       req.MinScoreForProposal,
		AutoAcceptMinScore:        req.AutoAcceptMinScore,
		MaxProposalsPerShift:      req.MaxProposalsPerShift,
		ProposalExpirationMinutes: req.ProposalExpirationMinutes,
		MaxWeeklyHours:            req.MaxWeeklyHours,
		IncludeTravelBuffer:       req.IncludeTravelBuffer,
	}
	if req.BranchID != nil {
		b := types.ID(*req.BranchID)
		cfg.BranchID = &b
	}

	published, err := h.configs.PublishVersion(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, toConfigView(published))
}

func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.GetByID(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConfigView(cfg))
}

// Resolve returns the configuration a match attempt would use for the given
// scope.
func (h *ConfigHandler) Resolve(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		writeError(c, http.StatusBadRequest, "org_id is required")
		return
	}
	var branchID *types.ID
	if b := c.Query("branch_id"); b != "" {
		id := types.ID(b)
		branchID = &id
	}

	cfg, err := h.configs.Resolve(c.Request.Context(), types.ID(orgID), branchID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConfigView(cfg))
}

func toConfigView(cfg *matchconfig.Configuration) configView {
	v := configView{
		ID:        string(cfg.ID),
		Version:   cfg.Version,
		IsActive:  cfg.IsActive,
		CreatedAt: cfg.CreatedAt,
	}
	v.Name = cfg.Name
	v.OrgID = string(cfg.OrgID)
	v.IsDefault = cfg.IsDefault
	if cfg.BranchID != nil {
		b := string(*cfg.BranchID)
		v.BranchID = &b
	}
	v.WeightSkill = cfg.Weights.SkillMatch
	v.WeightLanguage = cfg.Weights.LanguageMatch
	v.WeightCompliance = cfg.Weights.Compliance
	v.WeightDistance = cfg.Weights.Distance
	v.WeightReliability = cfg.Weights.Reliability
	v.WeightHistory = cfg.Weights.History
	v.WeightRejectionPenalty = cfg.Weights.RejectionPenalty
	v.CutoffExcellent = cfg.QualityCutoffs.Excellent
	v.CutoffGood = cfg.QualityCutoffs.Good
	v.CutoffFair = cfg.QualityCutoffs.Fair
	v.MinScoreForProposal = cfg.MinScoreForProposal
	v.AutoAcceptMinScore = cfg.AutoAcceptMinScore
	v.MaxProposalsPerShift = cfg.MaxProposalsPerShift
	v.ProposalExpirationMinutes = cfg.ProposalExpirationMinutes
	v.MaxWeeklyHours = cfg.MaxWeeklyHours
	v.IncludeTravelBuffer = cfg.IncludeTravelBuffer
	return v
}
