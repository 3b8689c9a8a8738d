package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/config"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务。
// rdb 可为 nil：此时 refresh token 仅靠签名校验，不支持单点吊销。
type AuthService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		rdb:      rdb,
		cfg:      cfg,
	}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login 用户名密码登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, *TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: 用户名或密码错误", ErrForbidden)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: 账号已停用", ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: 用户名或密码错误", ErrForbidden)
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.userRepo.Update(ctx, user)

	return user, pair, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":  user.ID,
		"uid":  user.ID,
		"name": user.Name,
		"iss":  s.cfg.JWT.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWT.AccessTokenExpire).Unix(),
		"jti":  uuid.New().String(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"iss": s.cfg.JWT.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.JWT.RefreshTokenExpire).Unix(),
		"jti": refreshJti,
		"typ": "refresh",
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if s.rdb != nil {
		s.rdb.Set(ctx, "token:refresh:"+refreshJti, user.ID, s.cfg.JWT.RefreshTokenExpire)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenExpire.Seconds()),
	}, nil
}

// RefreshToken 刷新Token。旧 refresh jti 一次性使用。
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	token, err := jwt.Parse(refreshTokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: refresh token无效", ErrForbidden)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "refresh" {
		return nil, fmt.Errorf("%w: refresh token无效", ErrForbidden)
	}

	jti, _ := claims["jti"].(string)
	userID, _ := claims["sub"].(string)

	if s.rdb != nil {
		stored, err := s.rdb.Get(ctx, "token:refresh:"+jti).Result()
		if err != nil || stored != userID {
			return nil, fmt.Errorf("%w: refresh token已失效", ErrForbidden)
		}
		s.rdb.Del(ctx, "token:refresh:"+jti)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: 用户不存在", ErrForbidden)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: 账号已停用", ErrForbidden)
	}

	return s.generateTokenPair(ctx, user)
}

// Logout 退出登录，吊销用户全部 refresh token
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, "token:refresh:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if v, err := s.rdb.Get(ctx, key).Result(); err == nil && v == userID {
			s.rdb.Del(ctx, key)
		}
	}
	return iter.Err()
}

// GetCurrentUser 获取当前用户（含权限）
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// HashPassword 生成密码哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
