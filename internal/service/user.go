package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/blob"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageBucket is the blob bucket profile pictures are stored in
const ImageBucket = "users"

// UserService contains the business logic for user operations.
type UserService struct {
	db       *gorm.DB
	blobs    blob.Store
	enforcer *rbac.Enforcer
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB, blobs blob.Store, enforcer *rbac.Enforcer) *UserService {
	return &UserService{db: db, blobs: blobs, enforcer: enforcer}
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *UserService) IsAdmin(id uuid.UUID) (bool, error) {
	return s.enforcer.IsAdmin(id)
}

// SetAdmin grants or revokes the admin role
func (s *UserService) SetAdmin(id uuid.UUID, admin bool) error {
	if admin {
		return s.enforcer.MakeAdmin(id)
	}
	return s.enforcer.RevokeAdmin(id)
}

// AdminIDs returns the set of users holding the admin role.
func (s *UserService) AdminIDs() (map[uuid.UUID]bool, error) {
	return s.enforcer.AdminUserIDs()
}

// Create validates uniqueness and inserts a new active user. A conflict
// that slips past the pre-check surfaces as the same ValidationError.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)

	if err := s.checkUnique(ctx, uuid.Nil, in.Email, in.Phone); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hashed,
		Status:       models.UserStatusActive,
	}

	if in.Image != nil {
		url, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		user.ImageURL = url
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.discardImage(ctx, user.ImageURL)
		if conflict := translateConflict(err); conflict != err {
			return nil, conflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Update applies the non-nil fields of in to the user.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*UserChange, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	after := *before

	var email, phone string
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		after.Email = email
	}
	if in.Phone != nil {
		phone = strings.TrimSpace(*in.Phone)
		after.Phone = phone
	}
	if err := s.checkUnique(ctx, id, email, phone); err != nil {
		return nil, err
	}

	if in.Name != nil {
		after.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		hashed, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		after.PasswordHash = hashed
	}
	var stored string
	if in.Image != nil {
		url, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		after.ImageURL = url
		stored = url
	}

	updates := map[string]any{
		"name":          after.Name,
		"email":         after.Email,
		"phone":         after.Phone,
		"password_hash": after.PasswordHash,
		"image_url":     after.ImageURL,
	}
	if err := s.db.WithContext(ctx).Model(&after).Updates(updates).Error; err != nil {
		s.discardImage(ctx, stored)
		if conflict := translateConflict(err); conflict != err {
			return nil, conflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &UserChange{Before: before, After: &after}, nil
}

// SetStatus moves the user to status.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (*UserChange, error) {
	if !status.Valid() {
		return nil, Invalid("status", "The selected status is invalid.")
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	after := *before
	after.Status = status

	if err := s.db.WithContext(ctx).Model(&after).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update user status: %w", err)
	}
	return &UserChange{Before: before, After: &after}, nil
}

// Delete removes a user and its role policies, returning the deleted row.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.forget(user.ID)
	return user, nil
}

// DeleteMany removes every user in ids atomically. All of them must exist.
func (s *UserService) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, Invalid("ids", "The ids field is required.")
	}
	ids = dedupe(ids)

	var users []models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Order("created_at ASC").Find(&users).Error; err != nil {
			return fmt.Errorf("find users: %w", err)
		}
		if missing := missingIDs(ids, users); len(missing) > 0 {
			return &NotFoundError{IDs: missing}
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.forget(ids...)
	return users, nil
}

// forget drops the role policies of deleted users. The rows are already
// gone, so a failure here only leaves policies for ids nobody can log in as.
func (s *UserService) forget(ids ...uuid.UUID) {
	if err := s.enforcer.Forget(ids...); err != nil {
		slog.Warn("Failed to remove policies of deleted users", "user_ids", ids, "error", err)
	}
}

// discardImage removes an upload whose row was never written
func (s *UserService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), url); err != nil {
		slog.Warn("Failed to remove orphaned image", "url", url, "error", err)
	}
}

// checkUnique reports taken email and phone values, ignoring the user
// being updated. Empty values are not checked.
func (s *UserService) checkUnique(ctx context.Context, self uuid.UUID, email, phone string) error {
	verr := &ValidationError{}

	taken := func(column, value string) (bool, error) {
		if value == "" {
			return false, nil
		}
		var count int64
		q := s.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value)
		if self != uuid.Nil {
			q = q.Where("id <> ?", self)
		}
		if err := q.Count(&count).Error; err != nil {
			return false, fmt.Errorf("check %s: %w", column, err)
		}
		return count > 0, nil
	}

	if ok, err := taken("email", email); err != nil {
		return err
	} else if ok {
		verr.Add("email", msgEmailTaken)
	}
	if ok, err := taken("phone", phone); err != nil {
		return err
	} else if ok {
		verr.Add("phone", msgPhoneTaken)
	}
	return verr.OrNil()
}

func (s *UserService) storeImage(ctx context.Context, r io.Reader) (string, error) {
	url, err := s.blobs.Put(ctx, ImageBucket, r)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrTooLarge):
			return "", Invalid("image", msgImageTooLarge)
		case errors.Is(err, blob.ErrUnsupportedType):
			return "", Invalid("image", msgImageType)
		}
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func missingIDs(ids []uuid.UUID, found []models.User) []uuid.UUID {
	present := make(map[uuid.UUID]bool, len(found))
	for _, u := range found {
		present[u.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
