package storage

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateMemberQR 為會員產生簽到用 QR 碼圖檔，回傳儲存後的 reference。
// QR 內容是掃描後導向的簽到網址，帶著該會員的 qr_token
func GenerateMemberQR(store ArtifactStore, qrToken string, memberID int, baseURL string) (string, error) {
	content := fmt.Sprintf("%s/check-in?token=%s&member=%d", baseURL, qrToken, memberID)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR png for member %d: %w", memberID, err)
	}

	ref, err := store.Put(fmt.Sprintf("qrcodes/qr-%d.png", memberID), png)
	if err != nil {
		return "", fmt.Errorf("failed to store QR image for member %d: %w", memberID, err)
	}
	return ref, nil
}
