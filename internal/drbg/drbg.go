/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *  * Redistributions of source code must retain the above copyright notice,
 *    this list of conditions and the following disclaimer.
 *
 *  * Redistributions in binary form must reproduce the above copyright notice,
 *    this list of conditions and the following disclaimer in the documentation
 *    and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package drbg implements a small SHA-256 backed counter DRBG, used to
// deterministically reseed the per-profile weighted distributions in
// internal/wdist from a fixed seed when reproducible padding/delay
// sequences are required (e.g. tests), and from fresh entropy otherwise.
package drbg

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/x0tta6bl4/shapedmesh/internal/csrand"
)

// SeedLength is the length of a Seed in bytes.
const SeedLength = 32

// Seed is the initial state for a HashDrbg instance.
type Seed [SeedLength]byte

// Bytes returns the seed's underlying byte representation.
func (seed *Seed) Bytes() *[SeedLength]byte {
	return (*[SeedLength]byte)(seed)
}

// NewSeed returns a random Seed, suitable for seeding a new HashDrbg.
func NewSeed() (*Seed, error) {
	seed := new(Seed)
	if err := csrand.Bytes(seed[:]); err != nil {
		return nil, err
	}
	return seed, nil
}

// HashDrbg is a minimal SHA-256 counter DRBG implementing the math/rand
// Source64 interface, so it can back a math/rand.Rand for deterministic
// sampling.
type HashDrbg struct {
	seed    [SeedLength]byte
	counter uint64
}

// NewHashDrbg creates a HashDrbg initialized with seed.
func NewHashDrbg(seed *Seed) *HashDrbg {
	drbg := &HashDrbg{}
	copy(drbg.seed[:], seed[:])
	return drbg
}

// Int63 returns the next pseudo-random 63-bit value as an int64.
func (d *HashDrbg) Int63() int64 {
	return int64(d.Uint64() &^ (1 << 63))
}

// Uint64 returns the next pseudo-random 64-bit value.
func (d *HashDrbg) Uint64() uint64 {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], d.counter)
	d.counter++

	h := sha256.New()
	h.Write(d.seed[:])
	h.Write(ctr[:])
	digest := h.Sum(nil)

	return binary.BigEndian.Uint64(digest[:8])
}

// Seed is a no-op; a HashDrbg's state is fixed at construction so that
// sampling sequences derived from the same Seed are reproducible.
func (d *HashDrbg) Seed(int64) {}

/* vim :set ts=4 sw=4 sts=4 noet : */
