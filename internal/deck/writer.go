package deck

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// TextRun is one contiguously colored piece of slide text. Newlines inside
// Text become soft line breaks in the rendered run sequence.
type TextRun struct {
	Text     string
	ColorHex string
}

// Paragraph is one paragraph of a text box, rendered in run order.
type Paragraph struct {
	Runs []TextRun
}

// TextBox places paragraphs at a fixed rectangle with a single font setup.
type TextBox struct {
	XEMU, YEMU       int64
	WidthEMU         int64
	HeightEMU        int64
	FontName         string
	FontSizePt       int
	Bold             bool
	AlignRight       bool
	Paragraphs       []Paragraph
	AnchorBottomLeft bool
}

// Picture places PNG bytes at a fixed rectangle.
type Picture struct {
	XEMU, YEMU int64
	WidthEMU   int64
	HeightEMU  int64
	PNG        []byte
}

// Slide is one generated output slide: a solid black canvas holding text
// boxes and optional pictures.
type Slide struct {
	TextBoxes []TextBox
	Pictures  []Picture
}

// Write serializes slides into a PPTX package at path. The canvas size is
// given in EMU and applies to every slide.
func Write(path string, widthEMU, heightEMU int64, slides []Slide) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output deck: %w", err)
	}
	archive := zip.NewWriter(out)

	write := func(name, content string) error {
		part, err := archive.Create(name)
		if err != nil {
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
		return nil
	}

	parts := map[string]string{
		"[Content_Types].xml":                        contentTypesXML(len(slides)),
		"_rels/.rels":                                rootRelsXML,
		"ppt/presentation.xml":                       presentationPartXML(widthEMU, heightEMU, len(slides)),
		"ppt/_rels/presentation.xml.rels":            presentationRelsXML(len(slides)),
		"ppt/slideMasters/slideMaster1.xml":          slideMasterXML,
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": slideMasterRelsXML,
		"ppt/slideLayouts/slideLayout1.xml":          slideLayoutXML,
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels": slideLayoutRelsXML,
		"ppt/theme/theme1.xml":                       themeXML,
	}
	for name, content := range parts {
		if err := write(name, content); err != nil {
			return err
		}
	}

	for i, slide := range slides {
		number := i + 1
		if err := write(fmt.Sprintf("ppt/slides/slide%d.xml", number), slideXML(slide)); err != nil {
			return err
		}
		if err := write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", number), slideRelsXML(slide, number)); err != nil {
			return err
		}
		for p, pic := range slide.Pictures {
			name := fmt.Sprintf("ppt/media/image%d_%d.png", number, p+1)
			part, err := archive.Create(name)
			if err != nil {
				return fmt.Errorf("create part %s: %w", name, err)
			}
			if _, err := part.Write(pic.PNG); err != nil {
				return fmt.Errorf("write part %s: %w", name, err)
			}
		}
	}

	if err := archive.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize output deck: %w", err)
	}
	return out.Close()
}

func contentTypesXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func presentationPartXML(widthEMU, heightEMU int64, slideCount int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i+1)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, widthEMU, heightEMU)
	fmt.Fprintf(&b, `<p:notesSz cx="%d" cy="%d"/>`, heightEMU, widthEMU)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func slideRelsXML(slide Slide, number int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	for p := range slide.Pictures {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d_%d.png"/>`, p+2, number, p+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func slideXML(slide Slide) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	b.WriteString(`<p:cSld>`)
	b.WriteString(`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="000000"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`)
	b.WriteString(`<p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	shapeID := 2
	for _, box := range slide.TextBoxes {
		writeTextBox(&b, box, shapeID)
		shapeID++
	}
	for p, pic := range slide.Pictures {
		writePicture(&b, pic, shapeID, p+2)
		shapeID++
	}

	b.WriteString(`</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	b.WriteString(`</p:sld>`)
	return b.String()
}

func writeTextBox(b *strings.Builder, box TextBox, shapeID int) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, shapeID, shapeID)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`, box.XEMU, box.YEMU, box.WidthEMU, box.HeightEMU)
	anchor := "t"
	if box.AnchorBottomLeft {
		anchor = "b"
	}
	fmt.Fprintf(b, `<p:txBody><a:bodyPr wrap="square" anchor="%s"><a:normAutofit/></a:bodyPr><a:lstStyle/>`, anchor)
	for _, paragraph := range box.Paragraphs {
		b.WriteString(`<a:p>`)
		if box.AlignRight {
			b.WriteString(`<a:pPr algn="r"/>`)
		}
		for _, run := range paragraph.Runs {
			writeRun(b, run, box)
		}
		b.WriteString(`</a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
}

func writeRun(b *strings.Builder, run TextRun, box TextBox) {
	bold := "0"
	if box.Bold {
		bold = "1"
	}
	props := fmt.Sprintf(`<a:rPr lang="ja-JP" sz="%d" b="%s" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/><a:ea typeface="%s"/></a:rPr>`,
		box.FontSizePt*100, bold, run.ColorHex, box.FontName, box.FontName)
	for i, line := range strings.Split(run.Text, "\n") {
		if i > 0 {
			b.WriteString(`<a:br/>`)
		}
		b.WriteString(`<a:r>`)
		b.WriteString(props)
		b.WriteString(`<a:t>`)
		xml.EscapeText(b, []byte(line)) //nolint:errcheck // strings.Builder never fails
		b.WriteString(`</a:t></a:r>`)
	}
}

func writePicture(b *strings.Builder, pic Picture, shapeID, relNumber int) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Thumbnail %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, shapeID, shapeID)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, relNumber)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, pic.XEMU, pic.YEMU, pic.WidthEMU, pic.HeightEMU)
}
