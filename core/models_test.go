package core

import (
	"slices"
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "archive path",
			content: "/data/nyt/1987/01.tgz",
		},
		{
			name:    "empty string",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("a.tar")
	id2 := IDFromContent("b.tar")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestDocument_Values(t *testing.T) {
	doc := &Document{
		DocID:              "1000000",
		GeneralDescriptors: []string{"Politics and Government", "Elections"},
		TypesOfMaterial:    []string{"News"},
		Section:            "A",
		PublicationYear:    1987,
	}

	tests := []struct {
		field  string
		want   []string
		wantOK bool
	}{
		{field: FieldDocID, want: []string{"1000000"}, wantOK: true},
		{field: FieldGeneralDescriptors, want: []string{"Politics and Government", "Elections"}, wantOK: true},
		{field: FieldTypesOfMaterial, want: []string{"News"}, wantOK: true},
		{field: FieldSection, want: []string{"A"}, wantOK: true},
		{field: FieldPublicationYear, want: []string{"1987"}, wantOK: true},
		{field: FieldPublicationMonth, want: nil, wantOK: true},
		{field: FieldDesk, want: nil, wantOK: true},
		{field: "full_text", want: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := doc.Values(tt.field)
			if ok != tt.wantOK {
				t.Fatalf("Values(%q) ok = %v, want %v", tt.field, ok, tt.wantOK)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Values(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestIsIndexableField(t *testing.T) {
	for _, field := range []string{FieldDocID, FieldGeneralDescriptors, FieldTypesOfMaterial, FieldLocations} {
		if !IsIndexableField(field) {
			t.Errorf("IsIndexableField(%q) = false, want true", field)
		}
	}
	if IsIndexableField("headline") {
		t.Errorf("IsIndexableField(%q) = true, want false", "headline")
	}
}

func TestStateStrings(t *testing.T) {
	if got := IndexStateReady.String(); got != "ready" {
		t.Errorf("IndexStateReady.String() = %q", got)
	}
	if got := IndexState(0).String(); got != "unknown" {
		t.Errorf("IndexState(0).String() = %q", got)
	}
	if got := OutcomeCanceled.String(); got != "canceled" {
		t.Errorf("OutcomeCanceled.String() = %q", got)
	}
}

func TestArchiveReport_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &ArchiveReport{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}

	if got := report.Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got)
	}
}
