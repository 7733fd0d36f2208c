package repository

import (
	"context"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (id, email, name, status, subscribed, tier_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.Email,
		member.Name,
		member.Status,
		member.Subscribed,
		member.TierID,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Member, error) {
	var m domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, status, subscribed, tier_id, created_at, updated_at
		 FROM members WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Member, error) {
	var m domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, status, subscribed, tier_id, created_at, updated_at
		 FROM members WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) UpdateEntitlement(ctx context.Context, db *gorm.DB, id int64, ent domain.Entitlement) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members SET status = ?, subscribed = ?, tier_id = ?, updated_at = ? WHERE id = ?`,
		ent.Status,
		ent.Subscribed,
		ent.TierID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, id int64, email, name string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members SET email = ?, name = ?, updated_at = ? WHERE id = ?`,
		strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(name),
		time.Now().UTC(),
		id,
	).Error
}
