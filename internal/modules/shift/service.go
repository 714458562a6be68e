// README: Shift/proposal orchestrator: match attempts, proposal lifecycle, expiry sweep.
package shift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

// Store is the persistence boundary for shifts, proposals, and history.
// Status updates are compare-and-set against the stored status and version;
// a false return means a concurrent writer won.
type Store interface {
	CreateShift(ctx context.Context, s *OpenShift) error
	GetShift(ctx context.Context, id types.ID) (*OpenShift, error)
	UpdateShiftStatus(ctx context.Context, id types.ID, from, to MatchingStatus, version int) (bool, error)
	IncrementMatchAttempts(ctx context.Context, id types.ID) (int, error)
	ListOpenShifts(ctx context.Context, orgID types.ID, from, to time.Time) ([]*OpenShift, error)

	CreateProposal(ctx context.Context, p *AssignmentProposal) error
	GetProposal(ctx context.Context, id types.ID) (*AssignmentProposal, error)
	UpdateProposalStatus(ctx context.Context, id types.ID, from, to ProposalStatus, version int, rejectionReason *string) (bool, error)
	ListOpenProposalsByShift(ctx context.Context, shiftID types.ID) ([]*AssignmentProposal, error)
	ListOpenProposals(ctx context.Context) ([]*AssignmentProposal, error)

	AppendHistory(ctx context.Context, rec *HistoryRecord) error
	ListHistory(ctx context.Context, shiftID types.ID) ([]*HistoryRecord, error)
}

// Directory is the slice of the external worker directory the orchestrator needs.
type Directory interface {
	GetByID(ctx context.Context, id types.ID) (*worker.Worker, error)
	SearchActive(ctx context.Context, orgID types.ID, branchID *types.ID) ([]*worker.Worker, error)
}

// VisitAssigner performs the actual binding side effect of an accepted proposal.
type VisitAssigner interface {
	AssignWorker(ctx context.Context, visitID, workerID types.ID) error
}

type ConfigResolver interface {
	Resolve(ctx context.Context, orgID types.ID, branchID *types.ID) (*matchconfig.Configuration, error)
	GetByID(ctx context.Context, id types.ID) (*matchconfig.Configuration, error)
}

// Notifier delivers proposal notifications. Fire-and-forget: delivery failures
// never roll back the proposal.
type Notifier interface {
	NotifyProposal(ctx context.Context, p *AssignmentProposal, w *worker.Worker, s *OpenShift) error
}

// ContextBuilder assembles per-candidate matching facts.
type ContextBuilder interface {
	BuildFor(ctx context.Context, w *worker.Worker, req matching.ShiftRequest, includeTravelBuffer bool) (*matching.WorkerMatchContext, error)
}

// DispatchLog suppresses duplicate notifications to a worker already notified
// for the same shift across repeated match attempts. Optional.
type DispatchLog interface {
	WasNotified(ctx context.Context, shiftID, workerID types.ID) (bool, error)
	RecordDispatch(ctx context.Context, shiftID types.ID, workerIDs []types.ID) error
}

// Explainer turns a finished match attempt into free-text history notes. Optional.
type Explainer interface {
	ExplainMatchAttempt(ctx context.Context, req matching.ShiftRequest, candidates []matching.MatchCandidate) (string, error)
}

type Deps struct {
	Store     Store
	Directory Directory
	Visits    VisitAssigner
	Configs   ConfigResolver
	Contexts  ContextBuilder
	Notifier  Notifier
	Dispatch  DispatchLog
	Explainer Explainer
	Logger    *zap.Logger
	// Lookahead bounds the self-selection shift feed window.
	Lookahead time.Duration
}

type Service struct {
	store     Store
	directory Directory
	visits    VisitAssigner
	configs   ConfigResolver
	contexts  ContextBuilder
	notifier  Notifier
	dispatch  DispatchLog
	explainer Explainer
	logger    *zap.Logger
	lookahead time.Duration
	now       func() time.Time
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lookahead := deps.Lookahead
	if lookahead == 0 {
		lookahead = 7 * 24 * time.Hour
	}
	return &Service{
		store:     deps.Store,
		directory: deps.Directory,
		visits:    deps.Visits,
		configs:   deps.Configs,
		contexts:  deps.Contexts,
		notifier:  deps.Notifier,
		dispatch:  deps.Dispatch,
		explainer: deps.Explainer,
		logger:    logger,
		lookahead: lookahead,
		now:       time.Now,
	}
}

type CreateShiftCommand struct {
	OrgID    types.ID
	BranchID *types.ID
	VisitID  types.ID
	ClientID types.ID

	ServiceType string
	Date        time.Time
	StartTime   time.Time
	EndTime     time.Time

	Requirements      []matching.Requirement
	PreferredLanguage string
	PreferredGender   string
	MaxDistanceMiles  *float64
	Location          *types.Point
	State             string
	Urgent            bool
	BlockedWorkerIDs  []types.ID
}

// CreateShift registers a visit that lost (or never had) a worker as an open
// shift in NEW.
func (s *Service) CreateShift(ctx context.Context, cmd CreateShiftCommand) (*OpenShift, error) {
	var reasons []string
	if cmd.OrgID == "" {
		reasons = append(reasons, "org_id is required")
	}
	if cmd.VisitID == "" {
		reasons = append(reasons, "visit_id is required")
	}
	if cmd.ClientID == "" {
		reasons = append(reasons, "client_id is required")
	}
	if !cmd.EndTime.After(cmd.StartTime) {
		reasons = append(reasons, "end_time must be after start_time")
	}
	for _, r := range cmd.Requirements {
		if r.Name == "" {
			reasons = append(reasons, "requirement name must not be empty")
		}
	}
	if len(reasons) > 0 {
		return nil, validationf(reasons, "invalid shift")
	}

	now := s.now()
	sh := &OpenShift{
		ID:                types.NewID(),
		OrgID:             cmd.OrgID,
		BranchID:          cmd.BranchID,
		VisitID:           cmd.VisitID,
		ClientID:          cmd.ClientID,
		ServiceType:       cmd.ServiceType,
		Date:              cmd.Date,
		StartTime:         cmd.StartTime,
		EndTime:           cmd.EndTime,
		Requirements:      cmd.Requirements,
		PreferredLanguage: cmd.PreferredLanguage,
		PreferredGender:   cmd.PreferredGender,
		MaxDistanceMiles:  cmd.MaxDistanceMiles,
		Location:          cmd.Location,
		State:             cmd.State,
		Urgent:            cmd.Urgent,
		MatchingStatus:    StatusNew,
		BlockedWorkerIDs:  cmd.BlockedWorkerIDs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateShift(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) GetShift(ctx context.Context, id types.ID) (*OpenShift, error) {
	return s.store.GetShift(ctx, id)
}

func (s *Service) GetProposal(ctx context.Context, id types.ID) (*AssignmentProposal, error) {
	return s.store.GetProposal(ctx, id)
}

// History returns a shift's audit trail, oldest first.
func (s *Service) History(ctx context.Context, shiftID types.ID) ([]*HistoryRecord, error) {
	if _, err := s.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, shiftID)
}

// CancelShift takes the shift out of matching and supersedes any proposals
// still open for it.
func (s *Service) CancelShift(ctx context.Context, id types.ID) error {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return err
	}
	if sh.MatchingStatus == StatusCancelled {
		return nil
	}
	if err := s.casShift(ctx, sh, StatusCancelled); err != nil {
		return err
	}
	open, err := s.store.ListOpenProposalsByShift(ctx, sh.ID)
	if err != nil {
		return err
	}
	for _, p := range open {
		if _, err := s.store.UpdateProposalStatus(ctx, p.ID, p.Status, ProposalSuperseded, p.StatusVersion, nil); err != nil {
			return err
		}
		s.appendHistory(ctx, &HistoryRecord{
			ShiftID:    sh.ID,
			Outcome:    OutcomeSuperseded,
			ProposalID: &p.ID,
			WorkerID:   &p.WorkerID,
			Notes:      "shift cancelled",
		})
	}
	return nil
}

type MatchCommand struct {
	ShiftID types.ID
	// ConfigID overrides the organization/branch default when set.
	ConfigID *types.ID
	// MaxCandidates caps proposal generation; zero means the configuration cap.
	MaxCandidates int
	AutoPropose   bool
}

type MatchResult struct {
	ShiftID    types.ID
	Attempt    int
	Outcome    MatchingStatus
	ConfigID   types.ID
	Candidates []matching.MatchCandidate
	Eligible   []matching.MatchCandidate
	Proposals  []*AssignmentProposal
}

// MatchShift runs one full matching attempt. Whatever happens, the shift never
// remains in MATCHING: success lands on MATCHED/NO_MATCH/PROPOSED, failure
// rolls back to NO_MATCH before the error is returned.
func (s *Service) MatchShift(ctx context.Context, cmd MatchCommand) (res *MatchResult, err error) {
	sh, err := s.store.GetShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sh.MatchingStatus, StatusMatching) {
		return nil, fmt.Errorf("%w: cannot match shift in status %s", ErrInvalidState, sh.MatchingStatus)
	}
	if err := s.casShift(ctx, sh, StatusMatching); err != nil {
		return nil, err
	}
	attempt, err := s.store.IncrementMatchAttempts(ctx, sh.ID)
	if err != nil {
		s.rollbackToNoMatch(ctx, sh, attempt, err)
		return nil, err
	}
	defer func() {
		if err != nil {
			s.rollbackToNoMatch(ctx, sh, attempt, err)
		}
	}()

	cfg, err := s.resolveConfig(ctx, cmd.ConfigID, sh)
	if err != nil {
		return nil, err
	}

	workers, err := s.directory.SearchActive(ctx, sh.OrgID, sh.BranchID)
	if err != nil {
		return nil, err
	}

	req := sh.MatchRequest()
	var candidates []matching.MatchCandidate
	for _, w := range workers {
		if sh.IsBlocked(w.ID) {
			continue
		}
		wctx, berr := s.contexts.BuildFor(ctx, w, req, cfg.IncludeTravelBuffer)
		if berr != nil {
			err = fmt.Errorf("build context for worker %s: %w", w.ID, berr)
			return nil, err
		}
		candidates = append(candidates, matching.EvaluateMatch(req, wctx, cfg))
	}
	ranked := matching.RankCandidates(candidates)

	limit := cmd.MaxCandidates
	if limit <= 0 {
		limit = cfg.MaxProposalsPerShift
	}
	var eligible []matching.MatchCandidate
	for _, c := range ranked {
		if !c.IsEligible || c.OverallScore < cfg.MinScoreForProposal {
			continue
		}
		eligible = append(eligible, c)
		if len(eligible) == limit {
			break
		}
	}

	outcome := StatusNoMatch
	if len(eligible) > 0 {
		outcome = StatusMatched
	}
	if err = s.casShift(ctx, sh, outcome); err != nil {
		return nil, err
	}

	res = &MatchResult{
		ShiftID:    sh.ID,
		Attempt:    attempt,
		Outcome:    outcome,
		ConfigID:   cfg.ID,
		Candidates: ranked,
		Eligible:   eligible,
	}

	if cmd.AutoPropose && len(eligible) > 0 {
		for _, c := range eligible {
			p, perr := s.issueProposal(ctx, sh, cfg, c, MethodAutomatic, true)
			if perr != nil {
				err = perr
				return nil, err
			}
			res.Proposals = append(res.Proposals, p)
		}
		if err = s.casShift(ctx, sh, StatusProposed); err != nil {
			return nil, err
		}
		res.Outcome = StatusProposed
	}

	historyOutcome := OutcomeNoMatch
	switch res.Outcome {
	case StatusMatched:
		historyOutcome = OutcomeMatched
	case StatusProposed:
		historyOutcome = OutcomeProposed
	}
	s.appendHistory(ctx, &HistoryRecord{
		ShiftID:         sh.ID,
		AttemptNumber:   attempt,
		Outcome:         historyOutcome,
		ConfigID:        &cfg.ID,
		EligibleCount:   len(eligible),
		IneligibleCount: len(ranked) - len(eligible),
		Notes:           s.attemptNotes(ctx, req, ranked),
	})

	s.logger.Info("match attempt finished",
		zap.String("shift_id", string(sh.ID)),
		zap.Int("attempt", attempt),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("eligible", len(eligible)),
		zap.Int("evaluated", len(ranked)))
	return res, nil
}

type CreateProposalCommand struct {
	ShiftID  types.ID
	WorkerID types.ID
	Method   ProposalMethod
	Notify   bool
}

// CreateProposal evaluates the worker live and persists a proposal with the
// frozen score snapshot. With Notify set the proposal is dispatched and marked
// SENT.
func (s *Service) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (*AssignmentProposal, error) {
	sh, err := s.store.GetShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}
	if sh.MatchingStatus.IsTerminal() {
		return nil, fmt.Errorf("%w: shift is %s", ErrConflict, sh.MatchingStatus)
	}
	cfg, err := s.resolveConfig(ctx, nil, sh)
	if err != nil {
		return nil, err
	}
	w, err := s.directory.GetByID(ctx, cmd.WorkerID)
	if err != nil {
		return nil, err
	}
	req := sh.MatchRequest()
	wctx, err := s.contexts.BuildFor(ctx, w, req, cfg.IncludeTravelBuffer)
	if err != nil {
		return nil, err
	}
	cand := matching.EvaluateMatch(req, wctx, cfg)
	return s.issueProposal(ctx, sh, cfg, cand, cmd.Method, cmd.Notify)
}

type RespondCommand struct {
	ProposalID      types.ID
	Accept          bool
	RejectionReason string
}

// RespondToProposal resolves a worker's answer. Exactly one proposal per shift
// can ever reach ACCEPTED: the proposal-status compare-and-set decides the
// race, and the losing caller gets ErrConflict.
func (s *Service) RespondToProposal(ctx context.Context, cmd RespondCommand) error {
	p, err := s.store.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	if !p.Status.IsOpen() {
		return fmt.Errorf("%w: proposal is %s", ErrConflict, p.Status)
	}
	sh, err := s.store.GetShift(ctx, p.ShiftID)
	if err != nil {
		return err
	}
	if sh.MatchingStatus == StatusAssigned {
		return fmt.Errorf("%w: shift already assigned", ErrConflict)
	}
	if sh.MatchingStatus == StatusCancelled {
		return fmt.Errorf("%w: shift was cancelled", ErrConflict)
	}

	if cmd.Accept {
		return s.acceptProposal(ctx, p, sh)
	}
	return s.rejectProposal(ctx, p, sh, cmd.RejectionReason)
}

func (s *Service) acceptProposal(ctx context.Context, p *AssignmentProposal, sh *OpenShift) error {
	// The shift row decides the race: only one accept can move it to ASSIGNED,
	// so two workers answering different proposals cannot both win.
	if err := s.casShift(ctx, sh, StatusAssigned); err != nil {
		return err
	}

	ok, err := s.store.UpdateProposalStatus(ctx, p.ID, p.Status, ProposalAccepted, p.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		// The proposal was resolved between the open check and the shift
		// update. Give the shift back and report the conflict.
		if released, rerr := s.store.UpdateShiftStatus(ctx, sh.ID, StatusAssigned, StatusMatched, sh.StatusVersion); rerr != nil || !released {
			s.logger.Error("could not release shift after accept conflict",
				zap.String("shift_id", string(sh.ID)), zap.Error(rerr))
		}
		return fmt.Errorf("%w: proposal already resolved", ErrConflict)
	}

	if err := s.visits.AssignWorker(ctx, sh.VisitID, p.WorkerID); err != nil {
		return fmt.Errorf("assign visit %s: %w", sh.VisitID, err)
	}

	// Supersede every sibling still open, within this same operation.
	siblings, err := s.store.ListOpenProposalsByShift(ctx, sh.ID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID == p.ID {
			continue
		}
		if _, err := s.store.UpdateProposalStatus(ctx, sib.ID, sib.Status, ProposalSuperseded, sib.StatusVersion, nil); err != nil {
			return err
		}
		s.appendHistory(ctx, &HistoryRecord{
			ShiftID:    sh.ID,
			Outcome:    OutcomeSuperseded,
			ProposalID: &sib.ID,
			WorkerID:   &sib.WorkerID,
			Notes:      fmt.Sprintf("superseded by accepted proposal %s", p.ID),
		})
	}

	s.appendHistory(ctx, &HistoryRecord{
		ShiftID:    sh.ID,
		Outcome:    OutcomeAccepted,
		ProposalID: &p.ID,
		WorkerID:   &p.WorkerID,
		ConfigID:   &p.ConfigID,
	})
	s.logger.Info("proposal accepted",
		zap.String("shift_id", string(sh.ID)),
		zap.String("proposal_id", string(p.ID)),
		zap.String("worker_id", string(p.WorkerID)))
	return nil
}

func (s *Service) rejectProposal(ctx context.Context, p *AssignmentProposal, sh *OpenShift, reason string) error {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	ok, err := s.store.UpdateProposalStatus(ctx, p.ID, p.Status, ProposalRejected, p.StatusVersion, reasonPtr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: proposal already resolved", ErrConflict)
	}
	s.appendHistory(ctx, &HistoryRecord{
		ShiftID:    sh.ID,
		Outcome:    OutcomeRejected,
		ProposalID: &p.ID,
		WorkerID:   &p.WorkerID,
		Notes:      reason,
	})

	// When the last open proposal is refused the shift reverts to MATCHED so a
	// fresh attempt can run.
	open, err := s.store.ListOpenProposalsByShift(ctx, sh.ID)
	if err != nil {
		return err
	}
	if len(open) == 0 && sh.MatchingStatus == StatusProposed {
		if err := s.casShift(ctx, sh, StatusMatched); err != nil {
			return err
		}
	}
	return nil
}

// MarkProposalViewed records that the worker opened the proposal.
func (s *Service) MarkProposalViewed(ctx context.Context, proposalID types.ID) error {
	p, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if p.Status == ProposalViewed {
		return nil
	}
	if p.Status != ProposalSent {
		return validationf([]string{fmt.Sprintf("proposal is %s", p.Status)},
			"only sent proposals can be marked viewed")
	}
	ok, err := s.store.UpdateProposalStatus(ctx, p.ID, ProposalSent, ProposalViewed, p.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: proposal changed concurrently", ErrConflict)
	}
	return nil
}

// CaregiverSelectShift is the worker-initiated path: eligibility and score are
// evaluated live, never from a stale ranking. Workers opted into auto-accept
// are bound immediately when the live score clears the higher auto-accept bar.
func (s *Service) CaregiverSelectShift(ctx context.Context, workerID, shiftID types.ID) (*AssignmentProposal, error) {
	sh, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.MatchingStatus.IsTerminal() {
		return nil, fmt.Errorf("%w: shift is %s", ErrConflict, sh.MatchingStatus)
	}
	w, err := s.directory.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.resolveConfig(ctx, nil, sh)
	if err != nil {
		return nil, err
	}
	req := sh.MatchRequest()
	wctx, err := s.contexts.BuildFor(ctx, w, req, cfg.IncludeTravelBuffer)
	if err != nil {
		return nil, err
	}
	cand := matching.EvaluateMatch(req, wctx, cfg)
	if !cand.IsEligible {
		return nil, validationf(cand.EligibilityIssues, "not eligible for this shift")
	}
	if cand.OverallScore < cfg.MinScoreForProposal {
		return nil, validationf(
			[]string{fmt.Sprintf("score %.1f below required %.1f", cand.OverallScore, cfg.MinScoreForProposal)},
			"match score below the proposal threshold")
	}

	p, err := s.issueProposal(ctx, sh, cfg, cand, MethodSelfSelect, false)
	if err != nil {
		return nil, err
	}

	if w.AutoAcceptOptIn && cand.OverallScore >= cfg.AutoAcceptMinScore {
		if err := s.RespondToProposal(ctx, RespondCommand{ProposalID: p.ID, Accept: true}); err != nil {
			return nil, err
		}
		return s.store.GetProposal(ctx, p.ID)
	}
	return p, nil
}

// ExpireStaleProposals sweeps open proposals past their configuration's
// expiration window. Safe to run redundantly: the status compare-and-set
// selects each proposal at most once, so history is never double-recorded.
func (s *Service) ExpireStaleProposals(ctx context.Context) (int, error) {
	open, err := s.store.ListOpenProposals(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	expired := 0
	for _, p := range open {
		cfg, err := s.configs.GetByID(ctx, p.ConfigID)
		if err != nil {
			s.logger.Warn("expiry sweep: configuration lookup failed",
				zap.String("proposal_id", string(p.ID)), zap.Error(err))
			continue
		}
		deadline := p.ExpiryReference().Add(time.Duration(cfg.ProposalExpirationMinutes) * time.Minute)
		if now.Before(deadline) {
			continue
		}
		ok, err := s.store.UpdateProposalStatus(ctx, p.ID, p.Status, ProposalExpired, p.StatusVersion, nil)
		if err != nil {
			return expired, err
		}
		if !ok {
			// resolved concurrently; nothing to record
			continue
		}
		expired++
		s.appendHistory(ctx, &HistoryRecord{
			ShiftID:    p.ShiftID,
			Outcome:    OutcomeExpired,
			ProposalID: &p.ID,
			WorkerID:   &p.WorkerID,
			ConfigID:   &p.ConfigID,
		})
		s.maybeRevertShift(ctx, p.ShiftID)
	}
	return expired, nil
}

// RunExpirySweeper invokes the expiry sweep on a fixed tick until the context
// is cancelled.
func (s *Service) RunExpirySweeper(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireStaleProposals(ctx)
			if err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired stale proposals", zap.Int("count", n))
			}
		}
	}
}

// AvailableShift pairs an open shift with the worker's live evaluation of it.
type AvailableShift struct {
	Shift     *OpenShift
	Candidate matching.MatchCandidate
}

// GetAvailableShiftsForCaregiver evaluates the worker against open shifts in a
// short forward window and returns only eligible, above-threshold matches,
// best first.
func (s *Service) GetAvailableShiftsForCaregiver(ctx context.Context, workerID types.ID) ([]AvailableShift, error) {
	w, err := s.directory.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	shifts, err := s.store.ListOpenShifts(ctx, w.OrgID, now, now.Add(s.lookahead))
	if err != nil {
		return nil, err
	}

	var available []AvailableShift
	for _, sh := range shifts {
		if sh.IsBlocked(w.ID) {
			continue
		}
		cfg, err := s.resolveConfig(ctx, nil, sh)
		if err != nil {
			return nil, err
		}
		req := sh.MatchRequest()
		wctx, err := s.contexts.BuildFor(ctx, w, req, cfg.IncludeTravelBuffer)
		if err != nil {
			return nil, err
		}
		cand := matching.EvaluateMatch(req, wctx, cfg)
		if !cand.IsEligible || cand.OverallScore < cfg.MinScoreForProposal {
			continue
		}
		available = append(available, AvailableShift{Shift: sh, Candidate: cand})
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Candidate.OverallScore != available[j].Candidate.OverallScore {
			return available[i].Candidate.OverallScore > available[j].Candidate.OverallScore
		}
		return available[i].Shift.StartTime.Before(available[j].Shift.StartTime)
	})
	return available, nil
}

// --- internals ---

// casShift performs a status-guarded update and keeps the in-memory copy in
// step with the store's version counter.
func (s *Service) casShift(ctx context.Context, sh *OpenShift, to MatchingStatus) error {
	if !CanTransition(sh.MatchingStatus, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, sh.MatchingStatus, to)
	}
	ok, err := s.store.UpdateShiftStatus(ctx, sh.ID, sh.MatchingStatus, to, sh.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: shift %s changed concurrently", ErrConflict, sh.ID)
	}
	sh.MatchingStatus = to
	sh.StatusVersion++
	return nil
}

func (s *Service) resolveConfig(ctx context.Context, explicit *types.ID, sh *OpenShift) (*matchconfig.Configuration, error) {
	if explicit != nil {
		cfg, err := s.configs.GetByID(ctx, *explicit)
		if err != nil {
			return nil, err
		}
		if !cfg.IsActive {
			return nil, validationf(nil, "matching configuration %s is inactive", *explicit)
		}
		return cfg, nil
	}
	cfg, err := s.configs.Resolve(ctx, sh.OrgID, sh.BranchID)
	if err == matchconfig.ErrNoConfiguration {
		return nil, validationf(nil, "no active default matching configuration for organization %s", sh.OrgID)
	}
	return cfg, err
}

// issueProposal persists the frozen candidate snapshot, then optionally
// notifies and marks the proposal SENT. Duplicate notifications for the same
// (shift, worker) are suppressed via the dispatch log but the proposal is
// still marked SENT.
func (s *Service) issueProposal(ctx context.Context, sh *OpenShift, cfg *matchconfig.Configuration, cand matching.MatchCandidate, method ProposalMethod, notify bool) (*AssignmentProposal, error) {
	now := s.now()
	p := &AssignmentProposal{
		ID:           types.NewID(),
		ShiftID:      sh.ID,
		WorkerID:     cand.WorkerID,
		ConfigID:     cfg.ID,
		Method:       method,
		Status:       ProposalPending,
		Score:        cand.OverallScore,
		Quality:      cand.Quality,
		MatchReasons: cand.MatchReasons,
		CreatedAt:    now,
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		return nil, err
	}

	if !notify {
		return p, nil
	}

	already := false
	if s.dispatch != nil {
		was, err := s.dispatch.WasNotified(ctx, sh.ID, p.WorkerID)
		if err != nil {
			s.logger.Warn("dispatch log read failed", zap.Error(err))
		} else {
			already = was
		}
	}
	if !already && s.notifier != nil {
		w, err := s.directory.GetByID(ctx, p.WorkerID)
		if err == nil {
			if nerr := s.notifier.NotifyProposal(ctx, p, w, sh); nerr != nil {
				s.logger.Warn("proposal notification failed",
					zap.String("proposal_id", string(p.ID)), zap.Error(nerr))
			} else if s.dispatch != nil {
				_ = s.dispatch.RecordDispatch(ctx, sh.ID, []types.ID{p.WorkerID})
			}
		}
	}

	ok, err := s.store.UpdateProposalStatus(ctx, p.ID, ProposalPending, ProposalSent, p.StatusVersion, nil)
	if err != nil {
		return nil, err
	}
	if ok {
		p.Status = ProposalSent
		p.StatusVersion++
		sent := s.now()
		p.SentAt = &sent
	}
	return p, nil
}

// maybeRevertShift moves a PROPOSED shift back to MATCHED once its last open
// proposal is gone, so the next attempt can run.
func (s *Service) maybeRevertShift(ctx context.Context, shiftID types.ID) {
	open, err := s.store.ListOpenProposalsByShift(ctx, shiftID)
	if err != nil || len(open) > 0 {
		return
	}
	sh, err := s.store.GetShift(ctx, shiftID)
	if err != nil || sh.MatchingStatus != StatusProposed {
		return
	}
	if err := s.casShift(ctx, sh, StatusMatched); err != nil {
		s.logger.Warn("could not revert shift after expiry",
			zap.String("shift_id", string(shiftID)), zap.Error(err))
	}
}

func (s *Service) rollbackToNoMatch(ctx context.Context, sh *OpenShift, attempt int, cause error) {
	fresh, gerr := s.store.GetShift(ctx, sh.ID)
	if gerr != nil {
		s.logger.Error("rollback: could not reload shift",
			zap.String("shift_id", string(sh.ID)), zap.Error(gerr))
		return
	}
	if fresh.MatchingStatus != StatusMatching {
		return
	}
	if _, uerr := s.store.UpdateShiftStatus(ctx, fresh.ID, StatusMatching, StatusNoMatch, fresh.StatusVersion); uerr != nil {
		s.logger.Error("rollback to no_match failed",
			zap.String("shift_id", string(sh.ID)), zap.Error(uerr))
		return
	}
	s.appendHistory(ctx, &HistoryRecord{
		ShiftID:       sh.ID,
		AttemptNumber: attempt,
		Outcome:       OutcomeError,
		Notes:         cause.Error(),
	})
}

// appendHistory is best-effort; a history-write failure never masks the
// primary operation.
func (s *Service) appendHistory(ctx context.Context, rec *HistoryRecord) {
	rec.ID = types.NewID()
	rec.CreatedAt = s.now()
	if err := s.store.AppendHistory(ctx, rec); err != nil {
		s.logger.Warn("history write failed",
			zap.String("shift_id", string(rec.ShiftID)), zap.Error(err))
	}
}

func (s *Service) attemptNotes(ctx context.Context, req matching.ShiftRequest, ranked []matching.MatchCandidate) string {
	if s.explainer != nil {
		if notes, err := s.explainer.ExplainMatchAttempt(ctx, req, ranked); err == nil && notes != "" {
			return notes
		}
	}
	eligible := 0
	for _, c := range ranked {
		if c.IsEligible {
			eligible++
		}
	}
	return fmt.Sprintf("evaluated %d workers, %d eligible", len(ranked), eligible)
}
