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

// Package shaping defines the traffic-shaping contract transports use to
// disguise packet timing and size, plus a library of shapers for a small
// set of named traffic profiles. A shaper is not an obfuscator: it changes
// when bytes go out and how big the buffer is, not what the bytes mean.
package shaping

import (
	"encoding/binary"
	"errors"
	"log"
	"time"

	"github.com/x0tta6bl4/shapedmesh/internal/drbg"
	"github.com/x0tta6bl4/shapedmesh/internal/wdist"
)

// lengthPrefixLen is the size of the big-endian length prefix ShapePacket
// writes ahead of the true payload.
const lengthPrefixLen = 2

// ShortBufferError is returned by UnshapePacket when buf is too small to
// hold even the length prefix.
type ShortBufferError int

func (e ShortBufferError) Error() string {
	return "shaping: buffer too short to contain a length prefix: " + itoa(int(e))
}

func itoa(n int) string {
	// Tiny local itoa to avoid pulling in strconv for a one-line error
	// message; kept intentionally trivial.
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TruncatedPayloadError is returned by UnshapePacket when the declared
// prefix length exceeds what's actually present in buf.
type TruncatedPayloadError int

func (e TruncatedPayloadError) Error() string {
	return "shaping: declared payload length exceeds buffer: " + itoa(int(e))
}

// Shaper disguises a packet's on-wire size and the delay before it is
// sent. ShapePacket/UnshapePacket must round-trip exactly regardless of
// how the target padded size was sampled.
type Shaper interface {
	ShapePacket(payload []byte) []byte
	UnshapePacket(buf []byte) ([]byte, error)
	GetSendDelay() time.Duration
}

// Profile names a traffic-shaping strategy, matching the wire-level
// identifiers in the transport config.
type Profile string

// Known profile identifiers.
const (
	None           Profile = "none"
	Gaming         Profile = "gaming"
	VoiceCall      Profile = "voice_call"
	VideoStreaming Profile = "video_streaming"
	FileDownload   Profile = "file_download"
)

type profileRange struct {
	minSize, maxSize   int
	minDelayMs         int
	maxDelayMs         int
}

var profileRanges = map[Profile]profileRange{
	Gaming:         {minSize: 50, maxSize: 300, minDelayMs: 10, maxDelayMs: 33},
	VoiceCall:      {minSize: 200, maxSize: 200, minDelayMs: 15, maxDelayMs: 25},
	VideoStreaming: {minSize: 800, maxSize: 1400, minDelayMs: 5, maxDelayMs: 20},
	FileDownload:   {minSize: 1400, maxSize: 1400, minDelayMs: 0, maxDelayMs: 2},
}

// ErrUnknownProfile is logged (not returned to callers that treat shaping
// as best-effort) when New is asked for a profile it doesn't recognize.
var ErrUnknownProfile = errors.New("shaping: unknown profile")

// New constructs the Shaper named by profile. A nil Shaper with a nil
// error means "no shaping installed" (profile "none", or an unrecognized
// identifier, which logs a warning per the wire contract).
func New(profile Profile, seed *drbg.Seed) (Shaper, error) {
	switch profile {
	case None, "":
		return nil, nil
	case Gaming, VoiceCall, VideoStreaming, FileDownload:
		if seed == nil {
			s, err := drbg.NewSeed()
			if err != nil {
				return nil, err
			}
			seed = s
		}
		r := profileRanges[profile]
		return &profileShaper{
			profile:   profile,
			sizeDist:  newSizeDist(seed, r),
			delayDist: newDelayDist(seed, r),
		}, nil
	default:
		log.Printf("[WARN] %v %q, disabling shaping", ErrUnknownProfile, profile)
		return nil, nil
	}
}

func newSizeDist(seed *drbg.Seed, r profileRange) *wdist.WDist {
	// wdist.New samples the inclusive range [min, max], so the profile's
	// upper bound is passed as max-1. A fixed-size profile (voice_call,
	// file_download) gets a degenerate one-wide range expressed as
	// [min, min+1) so Sample() always returns min.
	max := r.maxSize
	if max <= r.minSize {
		max = r.minSize + 1
	}
	return wdist.New(seed, r.minSize, max-1)
}

func newDelayDist(seed *drbg.Seed, r profileRange) *wdist.WDist {
	max := r.maxDelayMs
	if max <= r.minDelayMs {
		max = r.minDelayMs + 1
	}
	return wdist.New(seed, r.minDelayMs, max-1)
}

// profileShaper implements Shaper using two weighted distributions built
// from the same seed: one for the padded target size, one for the send delay.
type profileShaper struct {
	profile   Profile
	sizeDist  *wdist.WDist
	delayDist *wdist.WDist
}

// ShapePacket writes a 2-byte big-endian length prefix holding len(payload),
// followed by payload, followed by zero padding out to a sampled target
// size. The target is never allowed to shrink the frame below
// len(payload)+lengthPrefixLen.
func (s *profileShaper) ShapePacket(payload []byte) []byte {
	target := s.sizeDist.Sample()
	total := len(payload) + lengthPrefixLen
	if target < total {
		target = total
	}

	out := make([]byte, target)
	binary.BigEndian.PutUint16(out[:lengthPrefixLen], uint16(len(payload)))
	copy(out[lengthPrefixLen:], payload)
	return out
}

// UnshapePacket reads the length prefix and returns exactly that many
// payload bytes, discarding any trailing padding.
func (s *profileShaper) UnshapePacket(buf []byte) ([]byte, error) {
	if len(buf) < lengthPrefixLen {
		return nil, ShortBufferError(len(buf))
	}
	n := int(binary.BigEndian.Uint16(buf[:lengthPrefixLen]))
	if lengthPrefixLen+n > len(buf) {
		return nil, TruncatedPayloadError(n)
	}
	payload := make([]byte, n)
	copy(payload, buf[lengthPrefixLen:lengthPrefixLen+n])
	return payload, nil
}

// GetSendDelay samples a send delay from the profile's delay distribution.
func (s *profileShaper) GetSendDelay() time.Duration {
	return time.Duration(s.delayDist.Sample()) * time.Millisecond
}

/* vim :set ts=4 sw=4 sts=4 noet : */
