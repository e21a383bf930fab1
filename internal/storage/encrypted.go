package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iudanet/carestore/internal/crypto"
)

const (
	metaSalt     = "crypto_salt"
	metaKeyCheck = "crypto_key_check"
)

// Encrypted шифрует данные записей любого Backend ключом, выведенным из
// парольной фразы. Соль и хеш проверочного ключа хранятся в метаданных
// внутреннего хранилища в открытом виде.
type Encrypted struct {
	inner      Backend
	keys       *crypto.Keys
	passphrase string
	mu         sync.RWMutex
}

// NewEncrypted оборачивает inner. Ключи выводятся при первом Load.
func NewEncrypted(inner Backend, passphrase string) *Encrypted {
	return &Encrypted{inner: inner, passphrase: passphrase}
}

func recordAAD(r Record) []byte {
	return []byte(string(r.Kind) + "/" + r.ID.String())
}

// Load читает и расшифровывает записи. Для нового хранилища генерирует соль.
func (e *Encrypted) Load(ctx context.Context) (*Snapshot, error) {
	snap, err := e.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	salt, check := snap.Meta[metaSalt], snap.Meta[metaKeyCheck]
	if salt == nil {
		if len(snap.Records) > 0 {
			return nil, fmt.Errorf("found %d records without encryption salt", len(snap.Records))
		}
		keys, err := e.initKeys(ctx)
		if err != nil {
			return nil, err
		}
		e.keys = keys
	} else {
		keys, err := crypto.DeriveKeys(e.passphrase, salt)
		if err != nil {
			return nil, fmt.Errorf("failed to derive keys: %w", err)
		}
		if err := crypto.VerifyKey(keys.CheckKey, string(check)); err != nil {
			if errors.Is(err, crypto.ErrKeyMismatch) {
				return nil, ErrWrongPassphrase
			}
			return nil, fmt.Errorf("failed to verify key: %w", err)
		}
		e.keys = keys
	}

	out := &Snapshot{Meta: make(map[string][]byte, len(snap.Meta)), Records: make([]Record, 0, len(snap.Records))}
	for k, v := range snap.Meta {
		if k == metaSalt || k == metaKeyCheck {
			continue
		}
		out.Meta[k] = v
	}
	for _, r := range snap.Records {
		plain, err := crypto.Open(r.Data, e.keys.EncryptionKey, recordAAD(r))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s %s: %w", r.Kind, r.ID, err)
		}
		out.Records = append(out.Records, Record{Kind: r.Kind, ID: r.ID, Data: plain})
	}
	return out, nil
}

func (e *Encrypted) initKeys(ctx context.Context) (*crypto.Keys, error) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}
	keys, err := crypto.DeriveKeys(e.passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive keys: %w", err)
	}
	check, err := crypto.HashKey(keys.CheckKey)
	if err != nil {
		return nil, err
	}
	err = e.inner.Commit(ctx, &Batch{Meta: map[string][]byte{
		metaSalt:     salt,
		metaKeyCheck: []byte(check),
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to save encryption salt: %w", err)
	}
	return keys, nil
}

// Commit шифрует записи и передает batch внутреннему хранилищу.
func (e *Encrypted) Commit(ctx context.Context, batch *Batch) error {
	e.mu.RLock()
	keys := e.keys
	e.mu.RUnlock()
	if keys == nil {
		return ErrNotLoaded
	}

	sealed := &Batch{Meta: batch.Meta, Records: make([]Record, 0, len(batch.Records))}
	for _, r := range batch.Records {
		data, err := crypto.Seal(r.Data, keys.EncryptionKey, recordAAD(r))
		if err != nil {
			return fmt.Errorf("failed to encrypt %s %s: %w", r.Kind, r.ID, err)
		}
		sealed.Records = append(sealed.Records, Record{Kind: r.Kind, ID: r.ID, Data: data})
	}
	return e.inner.Commit(ctx, sealed)
}

// Close закрывает внутреннее хранилище.
func (e *Encrypted) Close() error {
	return e.inner.Close()
}
