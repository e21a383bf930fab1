package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrKeyMismatch возвращается, если ключ не соответствует сохраненному хешу
var ErrKeyMismatch = errors.New("key does not match")

// HashKey возвращает hex SHA256 ключа. Хранится рядом с данными
// для проверки парольной фразы при открытии.
func HashKey(key []byte) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("key cannot be empty")
	}
	hash := sha256.Sum256(key)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyKey сравнивает хеш ключа с сохраненным
func VerifyKey(key []byte, hashed string) error {
	if hashed == "" {
		return fmt.Errorf("hashed key cannot be empty")
	}
	computed, err := HashKey(key)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(computed), []byte(hashed)) != 1 {
		return ErrKeyMismatch
	}
	return nil
}
