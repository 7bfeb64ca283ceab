package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/golf-society/internal/models"
	"github.com/trentd187/golf-society/internal/store"
)

// Compile-time check that Repository satisfies the store contract.
var _ store.Store = (*Repository)(nil)

// Repository is the versioned document store kept in SQL tables.
//
// Every commit runs inside one database transaction:
//  1. make sure the branch row exists
//  2. check the branch head is still the writer's base revision
//  3. insert the revision and its files
//  4. move the branch head with a conditional UPDATE ... WHERE head_seq = <old seq>
//
// If anything fails the transaction rolls back and readers keep seeing the old head,
// so a commit is never half applied.
type Repository struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewRepository wraps an open GORM handle.
func NewRepository(db *gorm.DB, log *logrus.Logger) *Repository {
	return &Repository{db: db, log: log.WithField("component", "repository")}
}

// Ping checks the underlying connection; used by the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Head implements store.Store.
func (r *Repository) Head(ctx context.Context, branch string) (string, error) {
	b, ok, err := r.branch(r.db.WithContext(ctx), branch)
	if err != nil || !ok || b.HeadID == nil {
		return "", err
	}
	return b.HeadID.String(), nil
}

// Read implements store.Store.
func (r *Repository) Read(ctx context.Context, branch, revision, path string) (store.Document, error) {
	db := r.db.WithContext(ctx)
	doc := store.Document{Path: path}

	var seq int64
	if revision == "" {
		b, ok, err := r.branch(db, branch)
		if err != nil {
			return doc, err
		}
		if !ok || b.HeadID == nil {
			// Nothing committed yet: every path is missing.
			return doc, nil
		}
		seq = b.HeadSeq
		doc.Revision = b.HeadID.String()
	} else {
		id, err := uuid.Parse(revision)
		if err != nil {
			return doc, fmt.Errorf("%w: %s", store.ErrUnknownRevision, revision)
		}
		var rev models.Revision
		if err := db.Where("id = ? AND branch = ?", id, branch).First(&rev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return doc, fmt.Errorf("%w: %s", store.ErrUnknownRevision, revision)
			}
			return doc, err
		}
		seq = rev.Seq
		doc.Revision = rev.ID.String()
	}

	// The newest write of this path at or before the requested revision.
	var file models.RevisionFile
	err := db.Where("branch = ? AND path = ? AND seq <= ?", branch, path, seq).
		Order("seq DESC").
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return doc, nil
		}
		return doc, err
	}

	doc.Content = []byte(file.Content)
	doc.Found = true
	return doc, nil
}

// CommitAll implements store.Store.
func (r *Repository) CommitAll(ctx context.Context, c store.Commit) (string, error) {
	var created models.Revision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A first commit on a new branch needs the row to exist; concurrent creators are fine.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Branch{Name: c.Branch}).Error; err != nil {
			return fmt.Errorf("ensure branch: %w", err)
		}

		b, _, err := r.branch(tx, c.Branch)
		if err != nil {
			return err
		}

		head := ""
		if b.HeadID != nil {
			head = b.HeadID.String()
		}
		if head != c.Base {
			return store.ErrStaleRevision
		}

		created = models.Revision{
			ID:       uuid.New(),
			Branch:   c.Branch,
			Seq:      b.HeadSeq + 1,
			ParentID: b.HeadID,
			Message:  c.Message,
		}
		if err := tx.Create(&created).Error; err != nil {
			// Someone else already took this sequence number.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return store.ErrStaleRevision
			}
			return fmt.Errorf("create revision: %w", err)
		}

		for _, f := range c.Files {
			file := models.RevisionFile{
				ID:         uuid.New(),
				RevisionID: created.ID,
				Branch:     c.Branch,
				Path:       f.Path,
				Seq:        created.Seq,
				Content:    string(f.Content),
			}
			if err := tx.Create(&file).Error; err != nil {
				return fmt.Errorf("write %s: %w", f.Path, err)
			}
		}

		res := tx.Model(&models.Branch{}).
			Where("name = ? AND head_seq = ?", c.Branch, b.HeadSeq).
			Updates(map[string]any{
				"head_id":    created.ID,
				"head_seq":   created.Seq,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("move branch head: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrStaleRevision
		}

		return nil
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"branch": c.Branch,
			"base":   c.Base,
		}).WithError(err).Warn("commit rejected")
		return "", err
	}

	r.log.WithFields(logrus.Fields{
		"branch":   c.Branch,
		"revision": created.ID.String(),
		"seq":      created.Seq,
		"files":    len(c.Files),
	}).Info(c.Message)

	return created.ID.String(), nil
}

// History returns the revisions on branch, newest first.
func (r *Repository) History(ctx context.Context, branch string, limit int) ([]models.Revision, error) {
	var revs []models.Revision
	q := r.db.WithContext(ctx).Where("branch = ?", branch).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

// branch loads a branch row. ok is false when the branch has never been committed to.
func (r *Repository) branch(db *gorm.DB, name string) (models.Branch, bool, error) {
	var b models.Branch
	err := db.Where("name = ?", name).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b, false, nil
		}
		return b, false, err
	}
	return b, true, nil
}
