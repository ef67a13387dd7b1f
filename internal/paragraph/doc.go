// Package paragraph turns note files into speakable paragraphs.
// It splits a note on blank lines and cleans every block of the Markdown
// noise that would otherwise be read aloud by a speech engine.
package paragraph
