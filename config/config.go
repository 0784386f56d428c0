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

// Package config parses the bridge-line-style option string a deployment
// can use instead of building a udptransport.Config struct literal, the
// way transports/obfs4 and transports/Dust2 parse their pluggable-transport
// arguments with goptlib.
package config

import (
	"strconv"
	"time"

	pt "git.torproject.org/pluggable-transports/goptlib.git"

	"github.com/x0tta6bl4/shapedmesh/udptransport"
)

// ParseOptions parses a "key=value;key=value" option string into a
// udptransport.Config seeded from udptransport.DefaultConfig, the same
// option-string format obfs4's bridge line arguments use.
//
// Recognized keys: host, port, profile, obfuscation, key, reliable,
// ping-interval-ms, peer-timeout-ms, ack-timeout-ms, max-retries,
// max-packet-size. Unrecognized keys are ignored, matching goptlib's Args
// being a superset map callers pick fields out of.
func ParseOptions(s string) (udptransport.Config, error) {
	args, err := pt.ParseClientParameters(s)
	if err != nil {
		return udptransport.Config{}, err
	}

	host := "0.0.0.0"
	if v, ok := args.Get("host"); ok {
		host = v
	}

	port := 0
	if v, ok := args.Get("port"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		port = p
	}

	cfg := udptransport.DefaultConfig(host, port)

	if v, ok := args.Get("profile"); ok {
		cfg.Profile = v
	}
	if v, ok := args.Get("obfuscation"); ok {
		cfg.ObfuscationID = v
	}
	if v, ok := args.Get("key"); ok {
		cfg.ObfuscationKey = v
	}
	if v, ok := args.Get("reliable"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.Reliable = b
	}
	if v, ok := args.Get("ping-interval-ms"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.PingInterval = time.Duration(d) * time.Millisecond
	}
	if v, ok := args.Get("peer-timeout-ms"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.PeerTimeout = time.Duration(d) * time.Millisecond
	}
	if v, ok := args.Get("ack-timeout-ms"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.AckTimeout = time.Duration(d) * time.Millisecond
	}
	if v, ok := args.Get("max-retries"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.MaxRetries = n
	}
	if v, ok := args.Get("max-packet-size"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return udptransport.Config{}, err
		}
		cfg.MaxPacketSize = n
	}

	return cfg, nil
}

/* vim :set ts=4 sw=4 sts=4 noet : */
