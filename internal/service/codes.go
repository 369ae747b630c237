package service

import (
	"context"
	"crypto/rand"
	"math/big"

	apperrors "go-gin-cinema-booking/pkg/app_errors"
)

const (
	barcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digitAlphabet   = "0123456789"

	maxCodeAttempts = 10
)

// randomString 以 crypto/rand 產生不可預測的字串
func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// uniqueCode 產生碼後以 exists 檢查是否撞號，撞號就重抽
func uniqueCode(ctx context.Context, alphabet string, length int, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomString(alphabet, length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.ErrUniqueCodeExhausted
}
