// internal/services/user_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/models"
	"github.com/contoso/storefront/internal/utils"
)

// UserService is the minimal user store backing the order owner key.
// Authentication itself lives outside this service.
type UserService struct {
	store docstore.Client
}

func NewUserService(store docstore.Client) *UserService {
	return &UserService{store: store}
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Address  string `json:"address" validate:"max=512"`
	Password string `json:"password" validate:"required,min=8"`
}

func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if req == nil {
		return nil, apperrors.Invalid("request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Invalid(err.Error())
	}
	if existing, err := s.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %s already registered: %w", req.Email, apperrors.ErrConflict)
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.store.NextKey(ctx, models.CollectionUsers)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           id,
		Email:        req.Email,
		Name:         req.Name,
		Address:      req.Address,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	body, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Upsert(ctx, models.CollectionUsers, &docstore.Document{
		ID:        idString(user.ID),
		Partition: user.Email,
		Data:      body,
	}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.store.Query(ctx, models.CollectionUsers,
		&docstore.Filter{Field: "email", Value: email}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.NotFound("user " + email)
	}
	var user models.User
	if err := json.Unmarshal(docs[0].Data, &user); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &user, nil
}
