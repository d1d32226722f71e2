package deck_test

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"prompter/internal/deck"
)

func readPart(t *testing.T, archive *zip.ReadCloser, name string) string {
	t.Helper()
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		r, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func TestWriteProducesReadablePackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pptx")
	slides := []deck.Slide{
		{
			TextBoxes: []deck.TextBox{{
				XEMU: 288000, YEMU: 288000, WidthEMU: 9000000, HeightEMU: 6000000,
				FontName: "Meiryo", FontSizePt: 40, Bold: true,
				Paragraphs: []deck.Paragraph{
					{Runs: []deck.TextRun{{Text: "話者1：こんにちは。", ColorHex: "FFFF00"}}},
					{Runs: []deck.TextRun{{Text: "一行目\n二行目", ColorHex: "FFFFFF"}}},
				},
			}},
			Pictures: []deck.Picture{{XEMU: 9000000, YEMU: 4000000, WidthEMU: 2880000, HeightEMU: 1620000, PNG: []byte("png-bytes")}},
		},
		{
			TextBoxes: []deck.TextBox{{
				XEMU: 0, YEMU: 0, WidthEMU: 1000, HeightEMU: 1000,
				FontName: "Meiryo", FontSizePt: 20,
				Paragraphs: []deck.Paragraph{{Runs: []deck.TextRun{{Text: "<escaped> & sound", ColorHex: "00B0F0"}}}},
			}},
		},
	}

	if err := deck.Write(path, 12192000, 6858000, slides); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	archive, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	defer archive.Close()

	types := readPart(t, archive, "[Content_Types].xml")
	if !strings.Contains(types, "/ppt/slides/slide2.xml") {
		t.Fatal("content types missing slide override")
	}

	pres := readPart(t, archive, "ppt/presentation.xml")
	if !strings.Contains(pres, `cx="12192000" cy="6858000"`) {
		t.Fatalf("slide size not written: %s", pres)
	}
	if strings.Count(pres, "<p:sldId ") != 2 {
		t.Fatalf("expected 2 slide ids: %s", pres)
	}

	slide1 := readPart(t, archive, "ppt/slides/slide1.xml")
	for _, want := range []string{
		`val="000000"`,
		`val="FFFF00"`,
		`sz="4000"`,
		`b="1"`,
		"話者1：こんにちは。",
		"<a:br/>",
		`r:embed="rId2"`,
	} {
		if !strings.Contains(slide1, want) {
			t.Fatalf("slide1.xml missing %q:\n%s", want, slide1)
		}
	}

	slide2 := readPart(t, archive, "ppt/slides/slide2.xml")
	if !strings.Contains(slide2, "&lt;escaped&gt; &amp; sound") {
		t.Fatalf("text not escaped: %s", slide2)
	}
	if strings.Contains(slide2, "<p:pic>") {
		t.Fatal("slide2 should carry no picture")
	}

	media := readPart(t, archive, "ppt/media/image1_1.png")
	if media != "png-bytes" {
		t.Fatalf("picture bytes corrupted: %q", media)
	}

	rels := readPart(t, archive, "ppt/slides/_rels/slide1.xml.rels")
	if !strings.Contains(rels, "image1_1.png") {
		t.Fatalf("slide rels missing image target: %s", rels)
	}
}

func TestWriteEmptyDeck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pptx")
	if err := deck.Write(path, 12192000, 6858000, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := zip.OpenReader(path); err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
}
