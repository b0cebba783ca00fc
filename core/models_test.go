package core

import (
	"testing"
)

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		wantFolder string
		wantFile   string
	}{
		{name: "folder and file", label: "HR / Vacation Policy.pdf", wantFolder: "HR", wantFile: "Vacation Policy.pdf"},
		{name: "file only", label: "notes.txt", wantFolder: "", wantFile: "notes.txt"},
		{name: "first separator wins", label: "Corp / HR / Leave.pdf", wantFolder: "Corp", wantFile: "HR / Leave.pdf"},
		{name: "surrounding space", label: "  IT / VPN.pdf ", wantFolder: "IT", wantFile: "VPN.pdf"},
		{name: "slash without spaces is part of the name", label: "a/b.pdf", wantFolder: "", wantFile: "a/b.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, file := SplitLabel(tt.label)
			if folder != tt.wantFolder || file != tt.wantFile {
				t.Errorf("SplitLabel(%q) = (%q, %q), want (%q, %q)", tt.label, folder, file, tt.wantFolder, tt.wantFile)
			}
		})
	}
}

func TestJoinLabel(t *testing.T) {
	if got := JoinLabel("HR", "a.pdf"); got != "HR / a.pdf" {
		t.Errorf("JoinLabel() = %q", got)
	}
	if got := JoinLabel("", "a.pdf"); got != "a.pdf" {
		t.Errorf("JoinLabel() without folder = %q", got)
	}
}

func TestChunkKind(t *testing.T) {
	tests := []struct {
		kind         ChunkKind
		wantName     string
		wantIdentity bool
	}{
		{ChunkKindText, "text", false},
		{ChunkKindFileName, "file", true},
		{ChunkKindFolderName, "folder", true},
		{ChunkKind(0), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.wantName {
				t.Errorf("String() = %q, want %q", got, tt.wantName)
			}
			if got := tt.kind.IsIdentity(); got != tt.wantIdentity {
				t.Errorf("IsIdentity() = %v, want %v", got, tt.wantIdentity)
			}
		})
	}
}

func TestSnapshot_Counts(t *testing.T) {
	var nilSnap *Snapshot
	if nilSnap.Len() != 0 || nilSnap.DocumentCount() != 0 {
		t.Errorf("nil snapshot should be empty")
	}

	s := &Snapshot{
		Vectors:      [][]float32{{1}, {2}, {3}},
		SourceLabels: []string{"a", "a", "b"},
		FileIDs:      []string{"f1", "f1", "f2"},
		Texts:        []string{"x", "y", "z"},
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.DocumentCount() != 2 {
		t.Errorf("DocumentCount() = %d, want 2", s.DocumentCount())
	}
}
