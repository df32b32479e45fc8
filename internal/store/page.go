package store

import (
	"context"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/model"
)

// PageStore holds the content items forms are embedded in and confirmations
// redirect to.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

func (s *PageStore) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	var p model.Page
	err := s.db.conn().queryRow(ctx, `SELECT id, title, permalink FROM pages WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Permalink)
	if err != nil {
		return nil, notFoundOr(err, "page", id)
	}
	return &p, nil
}

func (s *PageStore) List(ctx context.Context) ([]model.Page, error) {
	rows, err := s.db.conn().query(ctx, `SELECT id, title, permalink FROM pages ORDER BY id`)
	if err != nil {
		return nil, apperr.Query("list pages", err)
	}
	defer rows.Close()

	pages := []model.Page{}
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.Title, &p.Permalink); err != nil {
			return nil, apperr.Query("scan page", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Query("list pages", err)
	}
	return pages, nil
}

func (s *PageStore) Create(ctx context.Context, p *model.Page) error {
	p.ID = 0
	if err := p.Validate(); err != nil {
		return err
	}
	id, err := s.db.conn().insert(ctx, `INSERT INTO pages (title, permalink) VALUES (?, ?)`, p.Title, p.Permalink)
	if err != nil {
		return apperr.Query("insert page", err)
	}
	p.ID = id
	return nil
}
