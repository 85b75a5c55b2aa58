// Copyright 2025 Poiesic Systems
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


package storage

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// The codecs below follow the mus layout: fields are written in declaration
// order with varint integers and length-prefixed strings. Each stored type
// has a size, a marshal and an unmarshal function that must visit the same
// fields in the same order.

// sizer accumulates the encoded size of a value.
type sizer int

func (s *sizer) uint(v uint64) { *s += sizer(varint.Uint64.Size(v)) }

func (s *sizer) int(v int) { *s += sizer(varint.Int64.Size(int64(v))) }

func (s *sizer) bool(v bool) { *s += sizer(ord.Bool.Size(v)) }

func (s *sizer) string(v string) { *s += sizer(ord.String.Size(v)) }

func (s *sizer) strings(v []string) {
	s.uint(uint64(len(v)))
	for _, str := range v {
		s.string(str)
	}
}

func (s *sizer) time(v time.Time) {
	s.bool(v.IsZero())
	if !v.IsZero() {
		*s += sizer(varint.Int64.Size(v.UnixMicro()))
	}
}

// writer marshals into a buffer sized by sizer.
type writer struct {
	bs []byte
	n  int
}

func (w *writer) uint(v uint64) { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }

func (w *writer) int(v int) { w.n += varint.Int64.Marshal(int64(v), w.bs[w.n:]) }

func (w *writer) bool(v bool) { w.n += ord.Bool.Marshal(v, w.bs[w.n:]) }

func (w *writer) string(v string) { w.n += ord.String.Marshal(v, w.bs[w.n:]) }

func (w *writer) strings(v []string) {
	w.uint(uint64(len(v)))
	for _, str := range v {
		w.string(str)
	}
}

func (w *writer) time(v time.Time) {
	w.bool(v.IsZero())
	if !v.IsZero() {
		w.n += varint.Int64.Marshal(v.UnixMicro(), w.bs[w.n:])
	}
}

// reader unmarshals fields and keeps the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) uint() (v uint64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return int(v)
}

func (r *reader) bool() (v bool) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.Bool.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) string() (v string) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) strings() []string {
	count := r.uint()
	if r.err != nil || count == 0 {
		return nil
	}
	// Every string takes at least one byte, so a larger count is corrupt.
	if count > uint64(len(r.bs)-r.n) {
		r.err = ErrTruncatedData
		return nil
	}
	v := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		str := r.string()
		if r.err != nil {
			return nil
		}
		v = append(v, str)
	}
	return v
}

func (r *reader) time() time.Time {
	if zero := r.bool(); zero || r.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
