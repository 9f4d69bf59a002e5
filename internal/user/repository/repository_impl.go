package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) UpdateMembershipTier(ctx context.Context, db *gorm.DB, id snowflake.ID, tier userdomain.MembershipTier, at time.Time) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE users SET membership_tier = ?, updated_at = ? WHERE id = ?`,
		tier,
		at,
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return userdomain.ErrNotFound
	}
	return nil
}
