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


package search

import (
	"iter"

	"github.com/poiesic/corpora/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *Query)
	AfterTermLookup(term Term, docIDs []string)
	AfterIntersection(docIDs iter.Seq[string])
	AfterRecordRetrieval(docs []*core.Document)
	HeadlineHit(doc *core.Document)
	BodyHit(doc *core.Document)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Query)                          {}
func (n *noopMonitor) AfterTermLookup(_ Term, _ []string)      {}
func (n *noopMonitor) AfterIntersection(_ iter.Seq[string])    {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.Document) {}
func (n *noopMonitor) HeadlineHit(_ *core.Document)            {}
func (n *noopMonitor) BodyHit(_ *core.Document)                {}
func (n *noopMonitor) Finish(_ []*Result)                      {}
