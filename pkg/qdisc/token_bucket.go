// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qdisc

import "time"

// refillThreshold avoids refill churn under tight polling: a bucket only
// advances its clock once more than this much time has passed.
const refillThreshold = 100 * time.Microsecond

// TokenBucket is a byte-denominated rate limiter with a named identity for
// logging. It is not safe for concurrent use — the ingestion loop is the
// only caller, per the single-threaded qdisc model.
type TokenBucket struct {
	Name string

	tokens     float64
	rate       float64 // bytes/s
	capacity   float64 // burst bytes
	lastUpdate time.Time
}

// NewTokenBucket creates a bucket starting full.
func NewTokenBucket(rate, capacity float64, name string) *TokenBucket {
	return &TokenBucket{
		Name:       name,
		tokens:     capacity,
		rate:       rate,
		capacity:   capacity,
		lastUpdate: nowFunc(),
	}
}

func (b *TokenBucket) refill() {
	now := nowFunc()
	elapsed := now.Sub(b.lastUpdate)
	if elapsed <= refillThreshold {
		return
	}
	b.tokens += b.rate * elapsed.Seconds()
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastUpdate = now
}

// CanSpend reports whether n bytes could be consumed right now, without
// consuming them.
func (b *TokenBucket) CanSpend(n int) bool {
	b.refill()
	return b.tokens >= float64(n)
}

// Consume attempts to spend n bytes, returning whether it succeeded.
func (b *TokenBucket) Consume(n int) bool {
	b.refill()
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Tokens returns the current token count, for reporting only.
func (b *TokenBucket) Tokens() float64 {
	return b.tokens
}
