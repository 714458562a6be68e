// README: Configuration versioning service: publish new versions, resolve active ones.
package matchconfig

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shiftmatch/internal/types"
)

type Service struct {
	store  *Store
	logger *zap.Logger
}

func NewService(store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) GetByID(ctx context.Context, id types.ID) (*Configuration, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Resolve(ctx context.Context, orgID types.ID, branchID *types.ID) (*Configuration, error) {
	return s.store.Resolve(ctx, orgID, branchID)
}

// PublishVersion validates and stores a new configuration version. Existing
// versions are never mutated; prior versions of the same name are deactivated
// so exactly one default resolves per scope. Proposals issued under an old
// version keep honoring it through their pinned config id.
func (s *Service) PublishVersion(ctx context.Context, cfg Configuration) (*Configuration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	version, err := s.store.NextVersion(ctx, cfg.OrgID, cfg.Name)
	if err != nil {
		return nil, err
	}
	cfg.ID = types.NewID()
	cfg.Version = version
	cfg.IsActive = true
	cfg.CreatedAt = time.Now()

	if err := s.store.Create(ctx, &cfg); err != nil {
		return nil, err
	}
	if err := s.store.DeactivatePrior(ctx, cfg.OrgID, cfg.Name, cfg.Version); err != nil {
		return nil, err
	}
	s.logger.Info("published matching configuration",
		zap.String("org_id", string(cfg.OrgID)),
		zap.String("name", cfg.Name),
		zap.Int("version", cfg.Version))
	return &cfg, nil
}

// EnsureDefault seeds the stock configuration for an organization that has
// none yet.
func (s *Service) EnsureDefault(ctx context.Context, orgID types.ID) (*Configuration, error) {
	cfg, err := s.store.Resolve(ctx, orgID, nil)
	if err == nil {
		return cfg, nil
	}
	if err != ErrNoConfiguration {
		return nil, err
	}
	seeded := Default(orgID)
	if err := s.store.Create(ctx, &seeded); err != nil {
		return nil, err
	}
	return &seeded, nil
}
