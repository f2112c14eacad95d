package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
)

// LoginResult 是登录结果。token 与 user_id 都是邮箱，只用于演示，不具备任何安全性。
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// AuthService 实现简化登录：首次登录时创建 user 文档。
type AuthService struct {
	store *store.Adapter
}

// NewAuthService 构造 AuthService
func NewAuthService(adapter *store.Adapter) *AuthService {
	return &AuthService{store: adapter}
}

// Login 以邮箱作为令牌。存储不可用时仍然返回令牌，只是不落库。
// 名称优先使用传入值，其次是已存储的名称，最后是邮箱 @ 之前的部分。
func (s *AuthService) Login(ctx context.Context, email, name string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if err := validation.Validate(email, validation.Required); err != nil {
		return LoginResult{}, &schema.ValidationError{Collection: schema.CollectionUser, Err: fmt.Errorf("email: %w", err)}
	}

	result := LoginResult{Token: email, UserID: email, Name: name}
	if !s.store.Available() {
		if result.Name == "" {
			result.Name = emailLocalPart(email)
		}
		slog.Warn("login without document store, user not persisted", slog.String("email", email))
		return result, nil
	}

	existing, err := s.store.Find(ctx, schema.CollectionUser, store.Eq("email", email), store.Limit(1))
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if len(existing) > 0 {
		if result.Name == "" {
			result.Name = existing[0].String("name")
		}
		if result.Name == "" {
			result.Name = emailLocalPart(email)
		}
		return result, nil
	}

	if result.Name == "" {
		result.Name = emailLocalPart(email)
	}
	user := &schema.User{Name: result.Name, Email: email}
	if err := schema.Prepare(user, s.store.Now()); err != nil {
		return LoginResult{}, err
	}
	if _, err := s.store.Create(ctx, schema.CollectionUser, user); err != nil {
		return LoginResult{}, fmt.Errorf("create user: %w", err)
	}
	return result, nil
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
