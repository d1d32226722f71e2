// Package notes turns raw presenter note text into speaker-tagged chunks
// sized for teleprompter slides. A speaker marker is a short line-leading
// label followed by an ASCII or full-width colon; everything between markers
// belongs to the current speaker. Chunking respects a character budget and
// never mixes two speakers on one chunk.
package notes
