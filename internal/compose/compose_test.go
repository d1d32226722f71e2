package compose_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"prompter/internal/compose"
	"prompter/internal/notes"
	"prompter/internal/palette"
	"prompter/internal/thumbnail"
)

const (
	canvasW = int64(12192000)
	canvasH = int64(6858000)
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestBuildSinglePageHasNoIndicator(t *testing.T) {
	chunk := notes.Chunk{
		Segments:  []notes.Segment{{Speaker: "話者1", Text: "こんにちは。", Labeled: true}},
		PageIndex: 1, PageCount: 1,
	}
	colors := palette.Assign([]string{"話者1"})

	slide := compose.Build(chunk, colors, thumbnail.Result{}, canvasW, canvasH)
	if len(slide.TextBoxes) != 1 {
		t.Fatalf("expected only the script text box, got %d boxes", len(slide.TextBoxes))
	}
	if len(slide.Pictures) != 0 {
		t.Fatal("no thumbnail bytes should mean no picture")
	}
}

func TestBuildLabeledSegmentRendersPrefix(t *testing.T) {
	chunk := notes.Chunk{
		Segments: []notes.Segment{
			{Speaker: "話者1", Text: "こんにちは。", Labeled: true},
			{Speaker: "話者1", Text: "続きです。"},
		},
		PageIndex: 1, PageCount: 1,
	}
	colors := palette.Assign([]string{"話者1"})

	slide := compose.Build(chunk, colors, thumbnail.Result{}, canvasW, canvasH)
	box := slide.TextBoxes[0]
	if len(box.Paragraphs) != 2 {
		t.Fatalf("expected one paragraph per segment, got %d", len(box.Paragraphs))
	}
	if got := box.Paragraphs[0].Runs[0].Text; got != "話者1：こんにちは。" {
		t.Fatalf("labeled run = %q", got)
	}
	if got := box.Paragraphs[1].Runs[0].Text; got != "続きです。" {
		t.Fatalf("continuation run = %q", got)
	}
	for _, p := range box.Paragraphs {
		if p.Runs[0].ColorHex != "FFFF00" {
			t.Fatalf("run color = %s, want roster yellow", p.Runs[0].ColorHex)
		}
	}
}

func TestBuildIndicatorBesideThumbnail(t *testing.T) {
	chunk := notes.Chunk{
		Segments:  []notes.Segment{{Text: "本文"}},
		PageIndex: 2, PageCount: 3,
	}
	thumb := thumbnail.Result{PNG: testPNG(t, 160, 90), Source: thumbnail.SourceDirect}

	slide := compose.Build(chunk, palette.Assign(nil), thumb, canvasW, canvasH)
	if len(slide.Pictures) != 1 {
		t.Fatalf("expected thumbnail picture, got %d", len(slide.Pictures))
	}
	pic := slide.Pictures[0]
	if pic.WidthEMU != 2880000 || pic.HeightEMU != 1620000 {
		t.Fatalf("thumbnail extent = %dx%d EMU", pic.WidthEMU, pic.HeightEMU)
	}
	if pic.XEMU != canvasW-2880000-36000 || pic.YEMU != canvasH-1620000-36000 {
		t.Fatalf("thumbnail position = (%d, %d)", pic.XEMU, pic.YEMU)
	}

	if len(slide.TextBoxes) != 2 {
		t.Fatalf("expected script box and indicator, got %d", len(slide.TextBoxes))
	}
	indicator := slide.TextBoxes[1]
	if got := indicator.Paragraphs[0].Runs[0].Text; got != "2/3" {
		t.Fatalf("indicator text = %q", got)
	}
	if got := indicator.Paragraphs[0].Runs[0].ColorHex; got != "00B0F0" {
		t.Fatalf("indicator color = %s", got)
	}
	if !indicator.AlignRight {
		t.Fatal("indicator should be right-aligned")
	}
	if indicator.XEMU+indicator.WidthEMU > pic.XEMU {
		t.Fatal("indicator overlaps the thumbnail rectangle")
	}
}

func TestBuildTextBoxNarrowsForThumbnail(t *testing.T) {
	chunk := notes.Chunk{Segments: []notes.Segment{{Text: "本文"}}, PageIndex: 1, PageCount: 1}

	without := compose.Build(chunk, palette.Assign(nil), thumbnail.Result{}, canvasW, canvasH)
	with := compose.Build(chunk, palette.Assign(nil), thumbnail.Result{PNG: testPNG(t, 160, 90)}, canvasW, canvasH)

	if with.TextBoxes[0].WidthEMU >= without.TextBoxes[0].WidthEMU {
		t.Fatalf("text box should narrow when a thumbnail is present: %d vs %d",
			with.TextBoxes[0].WidthEMU, without.TextBoxes[0].WidthEMU)
	}
}

func TestBuildUntaggedTextUsesNeutralColor(t *testing.T) {
	chunk := notes.Chunk{Segments: []notes.Segment{{Text: "地の文"}}, PageIndex: 1, PageCount: 1}
	slide := compose.Build(chunk, palette.Assign(nil), thumbnail.Result{}, canvasW, canvasH)
	if got := slide.TextBoxes[0].Paragraphs[0].Runs[0].ColorHex; got != "FFFFFF" {
		t.Fatalf("untagged run color = %s, want white", got)
	}
}
