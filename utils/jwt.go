package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

// InitJWTSecret 從環境變數載入 JWT 密鑰
func InitJWTSecret() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "fithub-dev-secret"
		log.Println("JWT_SECRET not set, using default development secret")
	}
	JWTSecret = []byte(secret)
}

// GenerateToken 簽發包含 member_id 和 role 的 JWT token，24 小時有效
func GenerateToken(memberID int, role string) (string, error) {
	claims := jwt.MapClaims{
		"member_id": memberID,
		"role":      role,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
