// Package compose lays out one generated script slide from a text chunk, its
// color assignment, and an optional thumbnail. The geometry contract is
// fixed: black canvas, big bold text filling the left side, thumbnail pinned
// to the bottom-right corner, page indicator beside the thumbnail.
package compose

import (
	"bytes"
	"fmt"
	"image/png"

	"prompter/internal/deck"
	"prompter/internal/notes"
	"prompter/internal/palette"
	"prompter/internal/thumbnail"
)

const (
	emuPerCm = 360000

	fontName   = "メイリオ"
	fontSizePt = 40

	textboxLeftEMU = emuPerCm * 79 / 100  // 0.79cm
	textboxTopEMU  = emuPerCm * 80 / 100  // 0.8cm
	marginEMU      = emuPerCm / 2         // 0.5cm breathing room around text
	minTextWidth   = 6 * emuPerCm
	minTextHeight  = 5 * emuPerCm

	thumbWidthEMU  = 8 * emuPerCm
	thumbMarginEMU = emuPerCm / 10 // 0.1cm, pinned tight to the corner

	indicatorWidthEMU  = 4 * emuPerCm
	indicatorHeightEMU = emuPerCm * 3 / 2
)

// Build renders one chunk into one output slide on a canvas of the given EMU
// size. thumb.PNG may be nil, in which case no picture is placed and the
// page indicator anchors to the canvas corner instead.
func Build(chunk notes.Chunk, colors *palette.Assignment, thumb thumbnail.Result, canvasW, canvasH int64) deck.Slide {
	var slide deck.Slide

	thumbW, thumbH, hasThumb := thumbnailExtent(thumb.PNG)
	var thumbLeft, thumbTop int64
	if hasThumb {
		thumbLeft = canvasW - thumbW - thumbMarginEMU
		thumbTop = canvasH - thumbH - thumbMarginEMU
		slide.Pictures = append(slide.Pictures, deck.Picture{
			XEMU: thumbLeft, YEMU: thumbTop,
			WidthEMU: thumbW, HeightEMU: thumbH,
			PNG: thumb.PNG,
		})
	}

	slide.TextBoxes = append(slide.TextBoxes, scriptTextBox(chunk, colors, canvasW, canvasH, thumbLeft, hasThumb))

	if chunk.PageCount > 1 {
		slide.TextBoxes = append(slide.TextBoxes, indicatorTextBox(chunk, canvasW, canvasH, thumbLeft, thumbTop, thumbH, hasThumb))
	}
	return slide
}

// scriptTextBox fills the area left of the thumbnail with one paragraph per
// segment. A labeled segment renders as "speaker：text" in one run so the
// label shares the speaker's color.
func scriptTextBox(chunk notes.Chunk, colors *palette.Assignment, canvasW, canvasH, thumbLeft int64, hasThumb bool) deck.TextBox {
	width := canvasW - textboxLeftEMU - marginEMU
	if hasThumb {
		width = thumbLeft - marginEMU - textboxLeftEMU
	}
	if width < minTextWidth {
		width = minTextWidth
	}
	height := canvasH - textboxTopEMU - 2*marginEMU
	if height < minTextHeight {
		height = minTextHeight
	}

	box := deck.TextBox{
		XEMU: textboxLeftEMU, YEMU: textboxTopEMU,
		WidthEMU: width, HeightEMU: height,
		FontName: fontName, FontSizePt: fontSizePt, Bold: true,
	}
	for _, segment := range chunk.Segments {
		text := segment.Text
		if segment.Labeled {
			text = segment.Speaker + "：" + text
		}
		box.Paragraphs = append(box.Paragraphs, deck.Paragraph{
			Runs: []deck.TextRun{{Text: text, ColorHex: colors.Lookup(segment.Speaker).Hex()}},
		})
	}
	return box
}

// indicatorTextBox places the "i/n" run beside the thumbnail, vertically
// centered on it, or in the corner area when no thumbnail was placed.
func indicatorTextBox(chunk notes.Chunk, canvasW, canvasH, thumbLeft, thumbTop, thumbH int64, hasThumb bool) deck.TextBox {
	var left, top int64
	if hasThumb {
		left = thumbLeft - indicatorWidthEMU - thumbMarginEMU
		if left < thumbMarginEMU {
			left = thumbMarginEMU
		}
		top = thumbTop
		if thumbH > indicatorHeightEMU {
			top += (thumbH - indicatorHeightEMU) / 2
		}
	} else {
		assumedThumbH := int64(thumbWidthEMU * 9 / 16)
		left = canvasW - indicatorWidthEMU - thumbMarginEMU
		top = canvasH - assumedThumbH - indicatorHeightEMU - marginEMU
	}

	return deck.TextBox{
		XEMU: left, YEMU: top,
		WidthEMU: indicatorWidthEMU, HeightEMU: indicatorHeightEMU,
		FontName: fontName, FontSizePt: fontSizePt, Bold: true,
		AlignRight: true,
		Paragraphs: []deck.Paragraph{{
			Runs: []deck.TextRun{{
				Text:     fmt.Sprintf("%d/%d", chunk.PageIndex, chunk.PageCount),
				ColorHex: palette.Indicator.Hex(),
			}},
		}},
	}
}

// thumbnailExtent sizes the thumbnail rectangle from the PNG's aspect ratio
// at the fixed display width. Undecodable bytes mean no thumbnail.
func thumbnailExtent(data []byte) (w, h int64, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	w = thumbWidthEMU
	h = w * int64(cfg.Height) / int64(cfg.Width)
	return w, h, true
}
