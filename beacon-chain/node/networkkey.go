package node

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// EncryptNetworkKey wraps raw (the node's libp2p identity private key bytes)
// in an AES-GCM envelope keyed by a passphrase-derived scrypt key, the same
// shape an encrypted keystore file on disk takes (§6 persisted state
// layout). The returned blob is salt || nonce || ciphertext.
func EncryptNetworkKey(raw []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt key derivation failed")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct AES-GCM")
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}
	ciphertext := gcm.Seal(nil, nonce, raw, nil)
	out := make([]byte, 0, saltLen+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptNetworkKey reverses EncryptNetworkKey, returning ErrWrongPassphrase
// if the passphrase-derived key cannot open the GCM envelope.
func DecryptNetworkKey(blob []byte, passphrase string) ([]byte, error) {
	if len(blob) < saltLen {
		return nil, errors.New("network key file too short")
	}
	salt := blob[:saltLen]
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt key derivation failed")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct AES-GCM")
	}
	rest := blob[saltLen:]
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("network key file too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	raw, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

// ErrWrongPassphrase is returned when a network key file fails to decrypt
// under the supplied passphrase.
var ErrWrongPassphrase = errors.New("wrong passphrase for network key file")
