package services

import "errors"

// 服務層錯誤分類，handlers 用 errors.Is 對應到 HTTP 狀態碼
var (
	ErrValidation     = errors.New("invalid input")
	ErrEmailTaken     = errors.New("email is already in use")
	ErrMemberNotFound = errors.New("member not found")
	ErrForbidden      = errors.New("access denied")
	ErrNoFile         = errors.New("no file uploaded")
	ErrLoginFailed    = errors.New("invalid credentials")
)
