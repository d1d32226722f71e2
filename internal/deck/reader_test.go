package deck_test

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"prompter/internal/deck"
	"prompter/internal/services"
	"prompter/internal/testsupport"
)

func TestReadExtractsNotesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.pptx")
	testsupport.BuildDeck(t, path,
		"話者1：こんにちは。",
		"",
		"話者2：二枚目です。\n続きの行。",
	)

	doc, err := deck.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(doc.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(doc.Slides))
	}
	if doc.Slides[0].RawText != "話者1：こんにちは。" {
		t.Fatalf("slide 1 notes = %q", doc.Slides[0].RawText)
	}
	if doc.Slides[1].RawText != "" {
		t.Fatalf("slide 2 should have no notes, got %q", doc.Slides[1].RawText)
	}
	if doc.Slides[2].RawText != "話者2：二枚目です。\n続きの行。" {
		t.Fatalf("slide 3 notes = %q", doc.Slides[2].RawText)
	}
	for i, slide := range doc.Slides {
		if slide.SlideIndex != i+1 {
			t.Fatalf("slide %d has index %d", i, slide.SlideIndex)
		}
	}
}

func TestReadSlideSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.pptx")
	testsupport.BuildDeck(t, path, "メモ")

	doc, err := deck.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if doc.WidthEMU != 12192000 || doc.HeightEMU != 6858000 {
		t.Fatalf("slide size = %dx%d EMU", doc.WidthEMU, doc.HeightEMU)
	}
}

func TestReadSkipsSlideNumberPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.pptx")
	testsupport.BuildDeck(t, path, "本文のみ")

	doc, err := deck.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if doc.Slides[0].RawText != "本文のみ" {
		t.Fatalf("slide number leaked into notes: %q", doc.Slides[0].RawText)
	}
}

func TestReadRejectsCorruptPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pptx")
	if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := deck.Read(path)
	if err == nil {
		t.Fatal("expected error for corrupt package")
	}
	if !errors.Is(err, services.ErrStructuralRead) {
		t.Fatalf("expected structural read error, got %v", err)
	}
}

func TestReadRejectsMissingPresentationPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pptx")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	archive := zip.NewWriter(out)
	part, err := archive.Create("unrelated.txt")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("x")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	out.Close()

	_, err = deck.Read(path)
	if !errors.Is(err, services.ErrStructuralRead) {
		t.Fatalf("expected structural read error, got %v", err)
	}
}
