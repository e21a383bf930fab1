package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Keys содержит ключи, производные от парольной фразы хранилища
type Keys struct {
	CheckKey      []byte // проверка парольной фразы без расшифровки данных
	EncryptionKey []byte // шифрование записей
}

// Параметры Argon2id
const (
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024
	Argon2Threads = 4
	Argon2KeyLen  = KeySize
	SaltSize      = 32
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKeys выводит два независимых ключа из парольной фразы через Argon2id
// с разными context strings
func DeriveKeys(passphrase string, salt []byte) (*Keys, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	derive := func(context string) []byte {
		input := append([]byte(passphrase), context...)
		return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)
	}

	return &Keys{
		CheckKey:      derive("check"),
		EncryptionKey: derive("encrypt"),
	}, nil
}
