package jwt

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"teamforge/app/server/types"
	"time"
)

type JWT struct {
	key []byte
}

type User struct {
	ID      uint
	Role    types.Role
	TokenID string // jti ，注销时按此吊销
	Expires int64  // Unix second
}

func (u *User) Identity() *types.Identity {
	return &types.Identity{
		ID:   u.ID,
		Role: u.Role,
	}
}

func (u *User) ExpiresAt() time.Time {
	return time.Unix(u.Expires, 0)
}

func New(key string) (*JWT, error) {
	if len(key) == 0 {
		return nil, errors.New("key is empty")
	}

	return &JWT{key: []byte(key)}, nil
}

func (j *JWT) ParseUser(tokenString string) (*User, error) {
	// 检查是否有效
	if len(tokenString) == 0 {
		return nil, errors.New("token string is empty")
	}

	// 只接受签发时使用的算法
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return j.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse jwt failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// 映射字段
	id, ok1 := claims["id"].(float64)
	role, ok2 := claims["role"].(float64)
	jti, ok3 := claims["jti"].(string)
	exp, ok4 := claims["exp"].(float64)
	if !ok1 || !ok2 || !ok3 || !ok4 || id <= 0 || jti == "" || !types.Role(role).Valid() {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &User{
		ID:      uint(id),
		Role:    types.Role(role),
		TokenID: jti,
		Expires: int64(exp),
	}, nil
}

func (j *JWT) SignToken(user *User) (string, error) {
	if user.TokenID == "" {
		user.TokenID = uuid.NewString()
	}

	// 创建声明
	claims := jwt.MapClaims{
		"id":   user.ID,
		"role": int(user.Role),
		"jti":  user.TokenID,
		"exp":  user.Expires,
	}

	// 创建令牌
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// 签名并返回
	return token.SignedString(j.key)
}
