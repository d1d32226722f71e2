package testsupport

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"
	"testing"
)

// BuildDeck writes a minimal PPTX fixture at path with one slide per entry
// in notes. An empty string yields a slide without a notes part. Newlines in
// a note become separate notes paragraphs, mirroring how editors store
// multi-line notes.
func BuildDeck(t testing.TB, path string, notes ...string) {
	t.Helper()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture deck: %v", err)
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	write := func(name, content string) {
		part, err := archive.Create(name)
		if err != nil {
			t.Fatalf("create part %s: %v", name, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}

	var types strings.Builder
	types.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	for i := range notes {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	types.WriteString(`</Types>`)
	write("[Content_Types].xml", types.String())

	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`)

	var pres strings.Builder
	pres.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	pres.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	pres.WriteString(`<p:sldIdLst>`)
	for i := range notes {
		fmt.Fprintf(&pres, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	pres.WriteString(`</p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`)
	write("ppt/presentation.xml", pres.String())

	var presRels strings.Builder
	presRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	presRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := range notes {
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+2, i+1)
	}
	presRels.WriteString(`</Relationships>`)
	write("ppt/_rels/presentation.xml.rels", presRels.String())

	for i, note := range notes {
		number := i + 1
		write(fmt.Sprintf("ppt/slides/slide%d.xml", number),
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld></p:sld>`)
		if note == "" {
			continue
		}
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", number),
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide`+fmt.Sprint(number)+`.xml"/></Relationships>`)

		var body strings.Builder
		body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
		body.WriteString(`<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`)
		body.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
		body.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`)
		for _, line := range strings.Split(note, "\n") {
			body.WriteString(`<a:p><a:r><a:t>`)
			body.WriteString(escapeXML(line))
			body.WriteString(`</a:t></a:r></a:p>`)
		}
		body.WriteString(`</p:txBody></p:sp>`)
		body.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Slide Number"/><p:cNvSpPr/><p:nvPr><p:ph type="sldNum" idx="10"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>`)
		body.WriteString(fmt.Sprint(number))
		body.WriteString(`</a:t></a:r></a:p></p:txBody></p:sp>`)
		body.WriteString(`</p:spTree></p:cSld></p:notes>`)
		write(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", number), body.String())
	}

	if err := archive.Close(); err != nil {
		t.Fatalf("finalize fixture deck: %v", err)
	}
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
