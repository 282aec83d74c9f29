package meta

import (
	"context"
	"time"

	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetaService manages the reference catalog the validation specs check
// bills and rules against.
type MetaService struct {
	repo      meta.Repository
	txManager shared.TransactionManager
	logger    *zap.Logger
}

// NewMetaService creates a new MetaService
func NewMetaService(repo meta.Repository, txManager shared.TransactionManager, logger *zap.Logger) *MetaService {
	return &MetaService{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// MetaResponse is the read view of a catalog entry
type MetaResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      meta.Kind `json:"kind"`
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateMetaRequest creates a catalog entry
type CreateMetaRequest struct {
	Kind     meta.Kind `json:"kind" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	FullName string    `json:"full_name"`
	Code     string    `json:"code"`
}

// BusinessRecord is one row of the authoritative business line listing
// used for synchronization.
type BusinessRecord struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	FullName string `json:"full_name"`
}

func toMetaResponse(entry *meta.Meta) *MetaResponse {
	return &MetaResponse{
		ID:        entry.ID,
		Kind:      entry.Kind,
		Name:      entry.Name,
		FullName:  entry.FullName,
		Code:      entry.Code,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

// List returns all entries of one catalog
func (s *MetaService) List(ctx context.Context, kind meta.Kind) ([]MetaResponse, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_META_KIND", "Meta kind is not valid")
	}
	entries, err := s.repo.FindByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]MetaResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *toMetaResponse(&entries[i]))
	}
	return out, nil
}

// Create adds a catalog entry
func (s *MetaService) Create(ctx context.Context, req CreateMetaRequest) (*MetaResponse, error) {
	entry, err := meta.NewMeta(req.Kind, req.Name, req.FullName, req.Code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, err
	}
	return toMetaResponse(entry), nil
}

// Delete removes a catalog entry
func (s *MetaService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// SyncBusinesses reconciles the business catalog against an
// authoritative listing: new codes are inserted, renamed codes are
// updated in place, and codes absent from the listing are removed. The
// whole reconciliation runs in one transaction.
func (s *MetaService) SyncBusinesses(ctx context.Context, records []BusinessRecord) error {
	var inserted, renamed, removed int

	err := s.txManager.Execute(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByKind(ctx, meta.KindBusiness)
		if err != nil {
			return err
		}
		byCode := make(map[string]*meta.Meta, len(existing))
		for i := range existing {
			byCode[existing[i].Code] = &existing[i]
		}

		seen := make(map[string]bool, len(records))
		for _, record := range records {
			seen[record.Code] = true
			current, ok := byCode[record.Code]
			if !ok {
				entry, err := meta.NewMeta(meta.KindBusiness, record.Name, record.FullName, record.Code)
				if err != nil {
					return err
				}
				if err := s.repo.Save(ctx, entry); err != nil {
					return err
				}
				inserted++
				continue
			}
			if current.Name != record.Name || current.FullName != record.FullName {
				if err := current.Rename(record.Name, record.FullName); err != nil {
					return err
				}
				if err := s.repo.Save(ctx, current); err != nil {
					return err
				}
				renamed++
			}
		}

		for i := range existing {
			if !seen[existing[i].Code] {
				if err := s.repo.Delete(ctx, existing[i].ID); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Business catalog synchronized",
		zap.Int("inserted", inserted),
		zap.Int("renamed", renamed),
		zap.Int("removed", removed))
	return nil
}

// CatalogSnapshotProvider builds validation snapshots from the stored
// catalog. One snapshot is taken per validation pass.
type CatalogSnapshotProvider struct {
	repo meta.Repository
}

// NewCatalogSnapshotProvider creates a snapshot provider over the repository
func NewCatalogSnapshotProvider(repo meta.Repository) *CatalogSnapshotProvider {
	return &CatalogSnapshotProvider{repo: repo}
}

// Snapshot reads the three catalogs into an immutable snapshot
func (p *CatalogSnapshotProvider) Snapshot(ctx context.Context) (*meta.Snapshot, error) {
	businesses, err := p.repo.FindByKind(ctx, meta.KindBusiness)
	if err != nil {
		return nil, err
	}
	subjects, err := p.repo.FindByKind(ctx, meta.KindBillSubject)
	if err != nil {
		return nil, err
	}
	providers, err := p.repo.FindByKind(ctx, meta.KindProvider)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(businesses))
	for i := range businesses {
		codes = append(codes, businesses[i].Code)
	}
	subjectNames := make([]string, 0, len(subjects))
	for i := range subjects {
		subjectNames = append(subjectNames, subjects[i].Name)
	}
	providerNames := make([]string, 0, len(providers))
	for i := range providers {
		providerNames = append(providerNames, providers[i].Name)
	}
	return meta.NewSnapshot(codes, subjectNames, providerNames), nil
}
