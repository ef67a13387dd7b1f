// Package audio plays synthesized PCM through the system audio device
// using the oto/v3 library. Playback is blocking: PlayBlocking returns only
// once the clip has finished or the context ends.
package audio
