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


package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// ReportRepository implements storage.ReportRepository for BadgerDB.
type ReportRepository struct {
	backend *Backend
}

var _ storage.ReportRepository = (*ReportRepository)(nil)

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(backend *Backend) *ReportRepository {
	return &ReportRepository{
		backend: backend,
	}
}

// Close releases resources. ReportRepository has no resources to release.
func (r *ReportRepository) Close() error {
	return nil
}

// SaveReport persists the report of one archive in one run.
func (r *ReportRepository) SaveReport(ctx context.Context, report *core.ArchiveReport) error {
	if report == nil || report.RunID == "" {
		return errors.New("report requires a run id")
	}
	if report.Seq < 0 {
		return fmt.Errorf("report sequence cannot be negative: %d", report.Seq)
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeReportKey(report.RunID, report.Seq, report.Archive)
		if err := tx.Set(key, storage.MarshalReport(report)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListReports returns every report of a run in input list order.
func (r *ReportRepository) ListReports(ctx context.Context, runID string) ([]*core.ArchiveReport, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var reports []*core.ArchiveReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeReportPrefix(runID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				report, err := storage.UnmarshalReport(val)
				if err != nil {
					return err
				}
				reports = append(reports, report)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(reports, func(a, b *core.ArchiveReport) int {
		if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
			return c
		}
		return strings.Compare(a.Archive, b.Archive)
	})
	return reports, nil
}
