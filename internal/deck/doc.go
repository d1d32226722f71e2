// Package deck reads and writes PPTX packages directly.
//
// The reader walks the zip container, follows the presentation's slide order
// through the relationship parts, and extracts each slide's notes body text.
// The writer emits the small fixed part set a generated script deck needs:
// presentation, one blank master/layout/theme, and one slide part per chunk.
// Only the shapes the composer produces are supported, which keeps both
// directions far smaller than a general OOXML library.
package deck
