package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type teacherDirectory interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type studentDirectory interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type groupDirectory interface {
	ListAll(ctx context.Context) ([]models.Group, error)
}

type aliasReader interface {
	ListAll(ctx context.Context, kind models.AliasKind) ([]models.NameAlias, error)
}

// DirectoryLoader reads the resolver snapshot. The four reads are independent
// and run concurrently.
type DirectoryLoader struct {
	teachers teacherDirectory
	students studentDirectory
	groups   groupDirectory
	aliases  aliasReader
}

// NewDirectoryLoader wires the directory readers.
func NewDirectoryLoader(teachers teacherDirectory, students studentDirectory, groups groupDirectory, aliases aliasReader) *DirectoryLoader {
	return &DirectoryLoader{teachers: teachers, students: students, groups: groups, aliases: aliases}
}

// Load returns a consistent-enough snapshot for one request.
func (l *DirectoryLoader) Load(ctx context.Context) (importer.Directory, error) {
	var dir importer.Directory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := l.teachers.ListActive(gctx)
		dir.Teachers = items
		return err
	})
	g.Go(func() error {
		items, err := l.students.ListActive(gctx)
		dir.Students = items
		return err
	})
	g.Go(func() error {
		items, err := l.groups.ListAll(gctx)
		dir.Groups = items
		return err
	})
	g.Go(func() error {
		items, err := l.aliases.ListAll(gctx, "")
		dir.Aliases = items
		return err
	})
	if err := g.Wait(); err != nil {
		return importer.Directory{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load directory")
	}
	return dir, nil
}

// Resolver loads the snapshot and indexes it.
func (l *DirectoryLoader) Resolver(ctx context.Context) (*importer.Resolver, error) {
	dir, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return importer.NewResolver(dir), nil
}
