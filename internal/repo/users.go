package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", u.Username).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) LockUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Clauses(forUpdate()).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ApproveVendor flips vendor_approved and reports whether the row changed.
func (r *GormRepo) ApproveVendor(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ? AND vendor_approved = ?", id, models.RoleVendor, false).
		Update("vendor_approved", true)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) ListPendingVendors(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("role = ? AND vendor_approved = ?", models.RoleVendor, false).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *GormRepo) ListAdminEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("(role = ? OR is_staff = ?) AND email <> ''", models.RoleAdmin, true).
		Pluck("email", &emails).Error
	return emails, err
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// RotateRefreshToken revokes the token identified by oldJTI and stores next.
// The conditional update makes a replayed refresh token fail with
// gorm.ErrRecordNotFound.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken) (*models.RefreshToken, error) {
	var old models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).Where("jti = ? AND token = ?", oldJTI, oldHash).First(&old).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ? AND expires_at > ?", old.ID, false, time.Now().UTC()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		next.UserID = old.UserID
		return tx.Create(next).Error
	})
	if err != nil {
		return nil, err
	}
	return &old, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokenHash).
		Update("revoked", true).Error
}
