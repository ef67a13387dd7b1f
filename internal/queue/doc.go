// Package queue provides the bounded handoff between the synthesis stage
// and the playback stage. A full queue blocks the producer so synthesis
// never runs more than a few paragraphs ahead of playback.
package queue
