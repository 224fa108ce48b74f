package main

import (
	"sotto/log"
	"sotto/typist"
)

// OutputSink finalizes a session: inject the transcript at the cursor
// when there is one, then always write the session record. Exactly one
// Deliver per finalized session.
type OutputSink struct {
	typist   typist.Typist
	autotype bool
}

func NewOutputSink(t typist.Typist, autotype bool) *OutputSink {
	return &OutputSink{typist: t, autotype: autotype}
}

// Deliver types the text iff the transcription succeeded with non-empty
// text, then appends the session record. Injection failures are logged
// as warnings and swallowed; they never change the session outcome.
func (s *OutputSink) Deliver(sess *Session, res TranscriptResult) {
	rec := log.SessionRecord{
		ID:       sess.ID,
		Duration: sess.Duration,
		Dropped:  sess.Dropped,
	}
	switch {
	case !res.Succeeded:
		rec.Outcome = log.OutcomeError
		rec.Detail = res.Detail
	case res.Text == "":
		rec.Outcome = log.OutcomeEmpty
	default:
		rec.Outcome = log.OutcomeSuccess
		rec.Text = res.Text
		if s.autotype && s.typist != nil {
			if err := s.typist.Type(res.Text); err != nil {
				log.Warnf("text injection failed: %v", err)
			}
		}
	}
	log.Session(rec)
}
