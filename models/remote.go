// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Credentials carries the username/password pair for remote authentication.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UploadRequest is the payload handed to the remote endpoint on upload:
// the opaque archive blob plus its declared checksum and metadata. The
// optional detached signature proves provenance of the archive.
type UploadRequest struct {
	Profile   ConfigProfile `json:"profile"`
	Archive   []byte        `json:"archive"`
	Checksum  string        `json:"checksum"`
	Signature []byte        `json:"signature,omitempty"`
	PublicKey []byte        `json:"public_key,omitempty"`
	Hash      string        `json:"hash,omitempty"`
}

// DownloadResponse is the shape expected back from the remote endpoint on
// download: the same archive blob + checksum + metadata the core uploaded.
type DownloadResponse struct {
	Profile   ConfigProfile `json:"profile"`
	Archive   []byte        `json:"archive"`
	Checksum  string        `json:"checksum"`
	Signature []byte        `json:"signature,omitempty"`
	PublicKey []byte        `json:"public_key,omitempty"`
}

// SearchRequest filters the remote profile catalogue.
type SearchRequest struct {
	Query  string   `json:"query,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Author string   `json:"author,omitempty"`
}
