// Copyright 2026 Patrick J. Scruggs
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

package logcap

import "sync"

// Buffer is the append-only capture sequence for one test: any number of
// producer goroutines may Append concurrently while readers take Snapshots.
// A snapshot is always a consistent prefix of capture order: it grows
// monotonically across successive calls and never exposes a half-built
// record (records are immutable before they reach the buffer).
type Buffer struct {
	mu   sync.RWMutex
	recs []*Record
}

// NewBuffer returns an empty capture buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Append adds r to the end of the capture sequence. Safe for concurrent use.
func (b *Buffer) Append(r *Record) {
	if r == nil {
		return
	}
	b.mu.Lock()
	b.recs = append(b.recs, r)
	b.mu.Unlock()
}

// Len returns the number of records captured so far.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.recs)
}

// Snapshot returns an immutable view of the records captured so far, in
// capture order. Appends that race with the call land in later snapshots.
func (b *Buffer) Snapshot() Sequence {
	b.mu.RLock()
	recs := make([]*Record, len(b.recs))
	copy(recs, b.recs)
	b.mu.RUnlock()
	return Sequence{recs: recs}
}
