// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"

	"github.com/MKhiriev/go-conf-sync/models"
)

// syncProgress tracks the state machine position of one in-flight profile
// operation. It is not persisted: each operation starts from the state
// implied by the on-disk artifacts it finds.
type syncProgress struct {
	state models.SyncState
}

func newProgress(initial models.SyncState) *syncProgress {
	return &syncProgress{state: initial}
}

// advance moves to the next state, failing on any edge the state machine
// does not allow.
func (p *syncProgress) advance(to models.SyncState) error {
	if !models.ValidTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}
	p.state = to
	return nil
}
