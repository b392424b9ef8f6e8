package document

import (
	"errors"
	"testing"
)

func TestInspectPDF(t *testing.T) {
	info, err := InspectPDF(MinimalPDF("Certificate of Completion"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Pages != 1 {
		t.Fatalf("pages = %d, want 1", info.Pages)
	}
	if info.FirstPageText != "Certificate of Completion" {
		t.Fatalf("first page text = %q", info.FirstPageText)
	}
}

func TestInspectPDFRejectsOtherData(t *testing.T) {
	if _, err := InspectPDF([]byte(`{"message":"oops"}`)); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
	if _, err := InspectPDF([]byte("%PDF-1.4\ngarbage")); err == nil {
		t.Fatal("expected error for truncated pdf")
	}
}
