// Package transcribe turns inbound webhook payloads into a single transcript
// fragment.
package transcribe

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MinFragmentLength is the shortest trimmed fragment worth coaching on.
const MinFragmentLength = 3

// Source names which part of the payload a fragment was taken from.
type Source string

const (
	SourceTranscript Source = "transcript"
	SourceSegments   Source = "segments"
	SourceText       Source = "text"
	SourceRaw        Source = "raw"
	SourceNone       Source = "none"
)

// Fragment is one unit of transcribed speech.
type Fragment struct {
	Text      string
	Speaker   string
	SpeakerID *int64
	IsUser    bool
	Timestamp *float64
	Source    Source
}

// Actionable reports whether the fragment is long enough to send upstream.
func (f Fragment) Actionable() bool {
	return utf8.RuneCountInString(strings.TrimSpace(f.Text)) >= MinFragmentLength
}

// Resolve picks the primary text out of a loosely structured payload.
//
// Priority: a non-empty "transcript" string, then the most recent "segments"
// entry not spoken by the wearer, then a "text" string. An object carrying none
// of those keys, or a payload that is not an object at all, is used verbatim.
func Resolve(payload []byte) Fragment {
	if !gjson.ValidBytes(payload) {
		return Fragment{Text: string(payload), Source: SourceRaw}
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		if root.Type == gjson.String {
			return Fragment{Text: root.String(), Source: SourceRaw}
		}
		return Fragment{Text: root.Raw, Source: SourceRaw}
	}

	if t := root.Get("transcript"); t.Type == gjson.String && t.String() != "" {
		return Fragment{Text: t.String(), Source: SourceTranscript}
	}

	if segments := root.Get("segments"); segments.IsArray() {
		entries := segments.Array()
		for i := len(entries) - 1; i >= 0; i-- {
			seg := entries[i]
			if !seg.IsObject() || seg.Get("is_user").Bool() {
				continue
			}
			if frag := segmentFragment(seg); frag.Text != "" {
				return frag
			}
			break
		}
	}

	if t := root.Get("text"); t.Type == gjson.String && t.String() != "" {
		return Fragment{Text: t.String(), Source: SourceText}
	}

	if root.Get("transcript").Exists() || root.Get("segments").Exists() || root.Get("text").Exists() {
		return Fragment{Source: SourceNone}
	}
	return Fragment{Text: root.Raw, Source: SourceRaw}
}

func segmentFragment(seg gjson.Result) Fragment {
	frag := Fragment{
		Text:    seg.Get("text").String(),
		Speaker: seg.Get("speaker").String(),
		IsUser:  seg.Get("is_user").Bool(),
		Source:  SourceSegments,
	}
	if id := seg.Get("speaker_id"); id.Type == gjson.Number {
		v := id.Int()
		frag.SpeakerID = &v
	}
	if ts := seg.Get("timestamp"); ts.Type == gjson.Number {
		v := ts.Float()
		frag.Timestamp = &v
	}
	return frag
}
