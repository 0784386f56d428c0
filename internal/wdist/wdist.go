/*
 * Copyright (c) 2014, Yawning Angel <yawning at torproject dot org>
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

// Package wdist implements a weighted distribution sampler using Vose's
// alias method, seeded from a deterministic DRBG. It backs the shaping
// package's per-profile padded-size and send-delay sampling, the same way
// obfs4's wDist backs its inter-arrival-time obfuscation.
package wdist

import (
	"container/list"
	"fmt"
	"math/rand"

	"github.com/x0tta6bl4/shapedmesh/internal/csrand"
	"github.com/x0tta6bl4/shapedmesh/internal/drbg"
)

const (
	minValues = 1
	maxValues = 100
)

// WDist is a weighted distribution over the integer range [min, max].
type WDist struct {
	minValue int
	maxValue int
	values   []int
	weights  []float64

	alias []int
	prob  []float64
}

// New creates a weighted distribution of values ranging from min to max
// based on a HashDrbg initialized with seed.
func New(seed *drbg.Seed, min, max int) *WDist {
	if max < min {
		panic(fmt.Sprintf("wdist.New(): min > max (%d, %d)", min, max))
	}

	w := &WDist{minValue: min, maxValue: max}
	w.Reset(seed)

	return w
}

// genValues creates a slice containing a random number of random values
// that when scaled by adding minValue will fall into [min, max].
func (w *WDist) genValues(rng *rand.Rand) {
	nValues := (w.maxValue + 1) - w.minValue
	values := rng.Perm(nValues)
	if nValues < minValues {
		nValues = minValues
	}
	if nValues > maxValues {
		nValues = maxValues
	}
	nValues = rng.Intn(nValues) + 1
	w.values = values[:nValues]
}

// genUniformWeights generates a uniform weight list.
func (w *WDist) genUniformWeights(rng *rand.Rand) {
	w.weights = make([]float64, len(w.values))
	for i := range w.weights {
		w.weights[i] = rng.Float64()
	}
}

// genTables calculates the alias and prob tables used for Vose's Alias
// method. Algorithm taken from http://www.keithschwarz.com/darts-dice-coins/
func (w *WDist) genTables() {
	n := len(w.weights)
	var sum float64
	for _, weight := range w.weights {
		sum += weight
	}

	alias := make([]int, n)
	prob := make([]float64, n)

	small := list.New()
	large := list.New()

	scaled := make([]float64, n)
	for i, weight := range w.weights {
		p := weight * float64(n) / sum
		scaled[i] = p

		if scaled[i] < 1.0 {
			small.PushBack(i)
		} else {
			large.PushBack(i)
		}
	}

	for small.Len() > 0 && large.Len() > 0 {
		l := small.Remove(small.Front()).(int)
		g := large.Remove(large.Front()).(int)

		prob[l] = scaled[l]
		alias[l] = g

		scaled[g] = (scaled[g] + scaled[l]) - 1.0

		if scaled[g] < 1.0 {
			small.PushBack(g)
		} else {
			large.PushBack(g)
		}
	}

	for large.Len() > 0 {
		g := large.Remove(large.Front()).(int)
		prob[g] = 1.0
	}
	for small.Len() > 0 {
		l := small.Remove(small.Front()).(int)
		prob[l] = 1.0
	}

	w.prob = prob
	w.alias = alias
}

// Reset generates a new distribution with the same min/max based on a new
// seed.
func (w *WDist) Reset(seed *drbg.Seed) {
	rng := rand.New(drbg.NewHashDrbg(seed))

	w.genValues(rng)
	w.genUniformWeights(rng)
	w.genTables()
}

// Sample generates a random value according to the distribution, using the
// process-wide CSPRNG (not the DRBG the tables were built from), so that
// successive calls are unpredictable even though the table shape is fixed.
func (w *WDist) Sample() int {
	var idx int

	i := csrand.Intn(len(w.values))
	if csrand.Float64() <= w.prob[i] {
		idx = i
	} else {
		idx = w.alias[i]
	}

	return w.minValue + w.values[idx]
}

/* vim :set ts=4 sw=4 sts=4 noet : */
