package storage

import (
	"testing"
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSerialization(t *testing.T) {
	published := time.Date(1987, 1, 1, 0, 0, 0, 0, time.UTC)
	inserted := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		DocID:              "1000000",
		URL:                "http://query.nytimes.com/gst/fullpage.html?res=9B0DE0",
		Headline:           "Reagan Signs Budget",
		OnlineHeadline:     "REAGAN SIGNS BUDGET",
		Byline:             "By JOHN DOE",
		FullText:           "Full text with unicode: café, naïve, 東京.",
		PublicationDate:    published,
		PublicationYear:    1987,
		PublicationMonth:   1,
		PublicationDay:     1,
		DayOfWeek:          "Thursday",
		Section:            "A",
		Page:               12,
		Column:             3,
		WordCount:          1182,
		GeneralDescriptors: []string{"Budgets and Budgeting", "Politics"},
		TypesOfMaterial:    []string{"News"},
		People:             []string{"Reagan, Ronald Wilson"},
		Source:             "01.tgz!01/01/1000000.xml",
		InsertedAt:         inserted,
	}

	data := MarshalDocument(doc)
	got, err := UnmarshalDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.DocID, got.DocID)
	assert.Equal(t, doc.FullText, got.FullText)
	assert.True(t, published.Equal(got.PublicationDate))
	assert.True(t, inserted.Equal(got.InsertedAt))
	assert.Equal(t, doc.GeneralDescriptors, got.GeneralDescriptors)
	assert.Equal(t, doc.TypesOfMaterial, got.TypesOfMaterial)
	assert.Equal(t, doc.People, got.People)
	assert.Nil(t, got.Locations, "empty slices decode as nil")
	assert.Equal(t, 1182, got.WordCount)
	assert.Equal(t, doc.Source, got.Source)
}

func TestDocumentSerialization_ZeroTimes(t *testing.T) {
	got, err := UnmarshalDocument(MarshalDocument(&core.Document{DocID: "1"}))
	require.NoError(t, err)

	assert.True(t, got.PublicationDate.IsZero())
	assert.True(t, got.InsertedAt.IsZero())
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	data := MarshalDocument(&core.Document{DocID: "1000000", Headline: "Something"})

	_, err := UnmarshalDocument(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalDocument_UnknownFormat(t *testing.T) {
	_, err := UnmarshalDocument([]byte{0x7f})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.Contains(t, err.Error(), "format version")
}

func TestIndexSpecSerialization(t *testing.T) {
	spec := &core.IndexSpec{
		Field:     core.FieldDocID,
		Unique:    true,
		State:     core.IndexStateReady,
		Entries:   3,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	got, err := UnmarshalIndexSpec(MarshalIndexSpec(spec))
	require.NoError(t, err)
	assert.Equal(t, spec, got)
}

func TestReportSerialization(t *testing.T) {
	start := time.Now().UTC().Truncate(time.Microsecond)
	report := &core.ArchiveReport{
		RunID:      "5f0c3a7e-1111-4a5b-9c1d-0e2f3a4b5c6d",
		Seq:        7,
		Archive:    "/data/a.tar",
		Outcome:    core.OutcomeFailed,
		Inserted:   2000,
		Skipped:    3,
		Failed:     1,
		Batches:    2,
		Error:      "parse failed",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
	}

	got, err := UnmarshalReport(MarshalReport(report))
	require.NoError(t, err)
	assert.Equal(t, report, got)
}
