// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// deviceSigner is the private implementation of [Signer]. Signatures are
// RSA-PSS over SHA-256 with MGF1(SHA-256) and the maximum salt length.
type deviceSigner struct {
	privateKey *rsa.PrivateKey
	publicPEM  []byte
}

var pssOpts = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthAuto,
	Hash:       crypto.SHA256,
}

// NewSigner parses the PEM-encoded device keypair produced by the keystore
// and returns a [Signer] bound to it.
func NewSigner(privatePEM, publicPEM []byte) (Signer, error) {
	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, errors.New("no PEM block in private key material")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("device private key is not RSA")
	}

	return &deviceSigner{
		privateKey: key,
		publicPEM:  append([]byte(nil), publicPEM...),
	}, nil
}

// Sign implements [Signer].
func (s *deviceSigner) Sign(payload []byte) ([]byte, error) {
	digest := sha256.Sum256(payload)

	signature, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, digest[:], pssOpts)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}

	return signature, nil
}

// Verify implements [Signer]. Every failure mode collapses to false: a
// malformed key or signature is just as untrusted as a wrong one, and
// callers should not have to tell them apart.
func (s *deviceSigner) Verify(payload, signature, publicKeyPEM []byte) bool {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return false
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return false
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], signature, pssOpts) == nil
}

// PublicKeyPEM implements [Signer].
func (s *deviceSigner) PublicKeyPEM() []byte {
	return append([]byte(nil), s.publicPEM...)
}
