package deck

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"prompter/internal/services"
)

// SlideNote carries the presenter notes of one source slide. SlideIndex is
// 1-based presentation order. RawText is empty when the slide has no notes.
type SlideNote struct {
	SlideIndex int
	RawText    string
}

// Document is the extracted shape of an input presentation: slide order,
// per-slide notes, and the slide canvas size in EMU.
type Document struct {
	Path      string
	Slides    []SlideNote
	WidthEMU  int64
	HeightEMU int64
}

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	Size *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

type relationshipsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type notesSlideXML struct {
	Shapes []struct {
		Placeholder *struct {
			Type string `xml:"type,attr"`
		} `xml:"nvSpPr>nvPr>ph"`
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"txBody>p"`
	} `xml:"cSld>spTree>sp"`
}

// Read opens a PPTX file and extracts the note document. Any structural
// problem (bad zip, missing parts, malformed XML) reports as a structural
// read error.
func Read(filePath string) (*Document, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, services.Wrap(services.ErrStructuralRead, "deck", "open", "not a readable presentation package", err)
	}
	defer archive.Close()

	parts := make(map[string]*zip.File, len(archive.File))
	for _, file := range archive.File {
		parts[file.Name] = file
	}

	var pres presentationXML
	if err := decodePart(parts, "ppt/presentation.xml", &pres); err != nil {
		return nil, err
	}

	var presRels relationshipsXML
	if err := decodePart(parts, "ppt/_rels/presentation.xml.rels", &presRels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(presRels.Rels))
	for _, rel := range presRels.Rels {
		targets[rel.ID] = rel.Target
	}

	doc := &Document{Path: filePath}
	if pres.Size != nil {
		doc.WidthEMU = pres.Size.CX
		doc.HeightEMU = pres.Size.CY
	}

	for i, id := range pres.SlideIDs {
		target, ok := targets[id.RelID]
		if !ok {
			return nil, services.Wrap(services.ErrStructuralRead, "deck", "slides", fmt.Sprintf("presentation references unknown relationship %s", id.RelID), nil)
		}
		slidePart := path.Join("ppt", target)
		text, err := notesText(parts, slidePart)
		if err != nil {
			return nil, err
		}
		doc.Slides = append(doc.Slides, SlideNote{SlideIndex: i + 1, RawText: text})
	}
	return doc, nil
}

// notesText resolves a slide part to its notes slide, if any, and returns the
// body placeholder text with one line per paragraph.
func notesText(parts map[string]*zip.File, slidePart string) (string, error) {
	relsPart := path.Join(path.Dir(slidePart), "_rels", path.Base(slidePart)+".rels")
	if _, ok := parts[relsPart]; !ok {
		return "", nil
	}

	var rels relationshipsXML
	if err := decodePart(parts, relsPart, &rels); err != nil {
		return "", err
	}
	notesPart := ""
	for _, rel := range rels.Rels {
		if strings.HasSuffix(rel.Type, "/notesSlide") {
			notesPart = path.Join(path.Dir(slidePart), rel.Target)
			break
		}
	}
	if notesPart == "" {
		return "", nil
	}

	var notes notesSlideXML
	if err := decodePart(parts, notesPart, &notes); err != nil {
		return "", err
	}

	// Prefer the body placeholder; the notes page also carries slide-image
	// and slide-number placeholders that must not leak into the script.
	var bodyLines, otherLines []string
	for _, shape := range notes.Shapes {
		phType := ""
		if shape.Placeholder != nil {
			phType = shape.Placeholder.Type
		}
		if phType == "sldImg" || phType == "sldNum" {
			continue
		}
		var lines []string
		for _, paragraph := range shape.Paragraphs {
			var b strings.Builder
			for _, run := range paragraph.Runs {
				b.WriteString(run.Text)
			}
			lines = append(lines, b.String())
		}
		if phType == "body" {
			bodyLines = append(bodyLines, lines...)
		} else {
			otherLines = append(otherLines, lines...)
		}
	}
	if len(bodyLines) > 0 {
		return strings.Join(bodyLines, "\n"), nil
	}
	return strings.Join(otherLines, "\n"), nil
}

func decodePart(parts map[string]*zip.File, name string, dst any) error {
	file, ok := parts[name]
	if !ok {
		return services.Wrap(services.ErrStructuralRead, "deck", "parts", fmt.Sprintf("missing part %s", name), nil)
	}
	reader, err := file.Open()
	if err != nil {
		return services.Wrap(services.ErrStructuralRead, "deck", "parts", fmt.Sprintf("open part %s", name), err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return services.Wrap(services.ErrStructuralRead, "deck", "parts", fmt.Sprintf("read part %s", name), err)
	}
	if err := xml.Unmarshal(data, dst); err != nil {
		return services.Wrap(services.ErrStructuralRead, "deck", "parts", fmt.Sprintf("parse part %s", name), err)
	}
	return nil
}
