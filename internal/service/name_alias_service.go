package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type nameAliasRepository interface {
	aliasReader
	aliasWriter
}

// NameAliasService lists and saves manual name resolutions.
type NameAliasService struct {
	repo      nameAliasRepository
	directory resolverLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNameAliasService wires the alias service.
func NewNameAliasService(repo nameAliasRepository, directory resolverLoader, validate *validator.Validate, logger *zap.Logger) *NameAliasService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NameAliasService{repo: repo, directory: directory, validator: validate, logger: logger}
}

// List returns stored aliases, optionally of one kind.
func (s *NameAliasService) List(ctx context.Context, kind string) ([]models.NameAlias, error) {
	k := models.AliasKind(kind)
	if kind != "" && !k.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown alias type %q", kind))
	}
	aliases, err := s.repo.ListAll(ctx, k)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list name aliases")
	}
	if aliases == nil {
		aliases = []models.NameAlias{}
	}
	return aliases, nil
}

// Upsert saves aliases by (alias, kind). Every entity id must exist in the
// current directory; nothing is written otherwise.
func (s *NameAliasService) Upsert(ctx context.Context, req dto.UpsertNameAliasesRequest) (*dto.UpsertNameAliasesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid name alias payload")
	}
	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	aliases := make([]models.NameAlias, 0, len(req.Aliases))
	for i, in := range req.Aliases {
		kind := models.AliasKind(in.Kind)
		var known bool
		switch kind {
		case models.AliasKindTeacher:
			_, known = resolver.Teacher(in.EntityID)
		case models.AliasKindStudent:
			_, known = resolver.Student(in.EntityID)
		case models.AliasKindGroup:
			_, known = resolver.Group(in.EntityID)
		}
		if !known {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("aliases[%d]: unknown %s id %q", i, kind, in.EntityID))
		}
		key := importer.AliasKey(in.Alias)
		if key == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("aliases[%d]: alias is blank", i))
		}
		aliases = append(aliases, models.NameAlias{Alias: key, Kind: kind, EntityID: in.EntityID})
	}

	if err := s.repo.UpsertMany(ctx, aliases); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save name aliases")
	}
	s.logger.Info("name aliases saved", zap.Int("count", len(aliases)))
	return &dto.UpsertNameAliasesResponse{Saved: len(aliases)}, nil
}
