// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/models"
)

const (
	deviceIDFile   = ".device_id"
	masterKeyFile  = "master.key"
	masterSaltFile = "master.salt"
	privateKeyFile = "device_private.pem"
	publicKeyFile  = "device_public.pem"

	// minKDFIterations is the PBKDF2 floor. Configured values below it are
	// raised, never lowered.
	minKDFIterations = 100_000

	saltSize      = 16
	masterKeySize = 32 // 256 bits
	rsaKeyBits    = 2048
)

// keyStore is the private implementation of [KeyStore]. It owns the on-disk
// key material of this installation: the stable device identifier, the
// wrapped symmetric master key, and the RSA signing keypair.
//
// The plaintext master key never touches durable storage: only the
// AES-256-GCM-wrapped blob and the KDF salt are persisted.
type keyStore struct {
	configDir  string
	keysDir    string
	iterations int
	logger     *logger.Logger
}

// NewKeyStore constructs a [KeyStore] rooted at configDir, with key material
// under keysDir. iterations is the PBKDF2 iteration count; values below the
// built-in floor are raised to it.
func NewKeyStore(configDir, keysDir string, iterations int, log *logger.Logger) KeyStore {
	if iterations < minKDFIterations {
		iterations = minKDFIterations
	}
	return &keyStore{
		configDir:  configDir,
		keysDir:    keysDir,
		iterations: iterations,
		logger:     log,
	}
}

// GetOrCreateDeviceIdentity implements [KeyStore]. It loads the device id
// from its permission-restricted file, generating and persisting a fresh
// 128-bit random identifier on first run. Idempotent: every later call
// returns the same identity.
func (k *keyStore) GetOrCreateDeviceIdentity(deviceName string) (models.DeviceIdentity, error) {
	path := filepath.Join(k.configDir, deviceIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id == "" {
			return models.DeviceIdentity{}, fmt.Errorf("%w: empty device id file %s", ErrKeyUnavailable, path)
		}
		return models.DeviceIdentity{DeviceID: id, DeviceName: deviceName}, nil
	}
	if !os.IsNotExist(err) {
		return models.DeviceIdentity{}, fmt.Errorf("read device id: %w", err)
	}

	if err = ensureSecureDir(k.configDir); err != nil {
		return models.DeviceIdentity{}, err
	}

	id := uuid.NewString()
	if err = writeFileAtomic(path, []byte(id+"\n"), 0o600); err != nil {
		return models.DeviceIdentity{}, fmt.Errorf("persist device id: %w", err)
	}

	k.logger.Info().Str("device_id", id).Msg("generated new device identity")
	return models.DeviceIdentity{DeviceID: id, DeviceName: deviceName}, nil
}

// GetOrCreateMasterKey implements [KeyStore]. It derives a wrapping key via
// PBKDF2-HMAC-SHA256 over the per-installation passphrase source and a
// persisted random salt, then unwraps the stored master key blob with
// AES-256-GCM. On first use a fresh random 256-bit master key is generated,
// wrapped, and persisted.
//
// Fails closed: if the stored blob cannot be unwrapped (corrupted or foreign
// key material) the error wraps [ErrKeyUnavailable] and no key is
// regenerated, since regenerating would silently orphan every previously
// encrypted profile.
func (k *keyStore) GetOrCreateMasterKey() ([]byte, error) {
	if err := ensureSecureDir(k.keysDir); err != nil {
		return nil, err
	}

	passphrase, err := k.passphraseSource()
	if err != nil {
		return nil, err
	}

	salt, err := k.getOrCreateSalt()
	if err != nil {
		return nil, err
	}

	wrappingKey := pbkdf2.Key([]byte(passphrase), salt, k.iterations, masterKeySize, sha256.New)

	keyPath := filepath.Join(k.keysDir, masterKeyFile)
	blob, err := os.ReadFile(keyPath)
	if err == nil {
		master, unwrapErr := unwrapKey(blob, wrappingKey)
		if unwrapErr != nil {
			k.logger.Error().Err(unwrapErr).Msg("stored master key cannot be unwrapped")
			return nil, fmt.Errorf("%w: unwrap master key: %v", ErrKeyUnavailable, unwrapErr)
		}
		return master, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master key blob: %w", err)
	}

	// First use: generate and wrap a fresh master key.
	master := make([]byte, masterKeySize)
	if _, err = io.ReadFull(rand.Reader, master); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}

	wrapped, err := wrapKey(master, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("wrap master key: %w", err)
	}
	if err = writeFileAtomic(keyPath, wrapped, 0o600); err != nil {
		return nil, fmt.Errorf("persist master key blob: %w", err)
	}

	k.logger.Info().Msg("generated new master key")
	return master, nil
}

// GetOrCreateDeviceKeypair implements [KeyStore]. It generates an RSA-2048
// keypair once and persists it in PEM form: private material owner-only
// (0600), public material world-readable (0644). Later calls return the
// persisted material unchanged.
func (k *keyStore) GetOrCreateDeviceKeypair() (privatePEM, publicPEM []byte, err error) {
	if err = ensureSecureDir(k.keysDir); err != nil {
		return nil, nil, err
	}

	privPath := filepath.Join(k.keysDir, privateKeyFile)
	pubPath := filepath.Join(k.keysDir, publicKeyFile)

	privatePEM, privErr := os.ReadFile(privPath)
	publicPEM, pubErr := os.ReadFile(pubPath)
	if privErr == nil && pubErr == nil {
		return privatePEM, publicPEM, nil
	}
	if privErr != nil && !os.IsNotExist(privErr) {
		return nil, nil, fmt.Errorf("read private key: %w", privErr)
	}
	if pubErr != nil && !os.IsNotExist(pubErr) {
		return nil, nil, fmt.Errorf("read public key: %w", pubErr)
	}
	// Half of the pair missing means the key material was tampered with or
	// partially deleted. Fail closed rather than regenerate over it.
	if (privErr == nil) != (pubErr == nil) {
		return nil, nil, fmt.Errorf("%w: device keypair is incomplete on disk", ErrKeyUnavailable)
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate rsa keypair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	if err = writeFileAtomic(privPath, privatePEM, 0o600); err != nil {
		return nil, nil, fmt.Errorf("persist private key: %w", err)
	}
	if err = writeFileAtomic(pubPath, publicPEM, 0o644); err != nil {
		return nil, nil, fmt.Errorf("persist public key: %w", err)
	}

	k.logger.Info().Msg("generated new device keypair")
	return privatePEM, publicPEM, nil
}

// passphraseSource builds the per-installation passphrase from the device id
// and the local user identity. The device id must exist before any key
// material can be derived.
func (k *keyStore) passphraseSource() (string, error) {
	identity, err := k.GetOrCreateDeviceIdentity("")
	if err != nil {
		return "", err
	}

	username := os.Getenv("USER")
	if u, uerr := user.Current(); uerr == nil && u.Username != "" {
		username = u.Username
	}

	return identity.DeviceID + ":" + username, nil
}

func (k *keyStore) getOrCreateSalt() ([]byte, error) {
	saltPath := filepath.Join(k.keysDir, masterSaltFile)

	salt, err := os.ReadFile(saltPath)
	if err == nil {
		if len(salt) != saltSize {
			return nil, fmt.Errorf("%w: salt file has wrong length %d", ErrKeyUnavailable, len(salt))
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master salt: %w", err)
	}

	salt = make([]byte, saltSize)
	if _, err = io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate master salt: %w", err)
	}
	if err = writeFileAtomic(saltPath, salt, 0o600); err != nil {
		return nil, fmt.Errorf("persist master salt: %w", err)
	}

	return salt, nil
}

// wrapKey seals key with wrappingKey using AES-256-GCM. A random 12-byte
// nonce is prepended to the ciphertext so that the unwrap side can locate
// it: blob = nonce ‖ ciphertext.
func wrapKey(key, wrappingKey []byte) ([]byte, error) {
	block, err := aes.NewCipher(wrappingKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	wrapped := gcm.Seal(nil, nonce, key, nil)
	return append(nonce, wrapped...), nil
}

// unwrapKey reverses wrapKey. An authentication error here almost always
// means the wrapping key was derived from a different device id or user.
func unwrapKey(blob, wrappingKey []byte) ([]byte, error) {
	block, err := aes.NewCipher(wrappingKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	key, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return key, nil
}

// ensureSecureDir creates dir with owner-only permissions before any key is
// written, so there is no window where key material is world-readable.
func ensureSecureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create secure dir %s: %w", dir, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary sibling of path and renames it
// into place, so a concurrent reader never observes a half-written file.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace file: %w", err)
	}

	return nil
}
