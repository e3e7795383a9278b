package wakeword

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
)

// DefaultRefractory suppresses repeat detections of one utterance that spans
// two clips.
const DefaultRefractory = 2 * time.Second

// Spotter matches a wake phrase against transcripts.
type Spotter struct {
	phrase     string
	refractory time.Duration
	now        func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewSpotter returns a Spotter for phrase. A negative refractory is treated as zero.
func NewSpotter(phrase string, refractory time.Duration) (*Spotter, error) {
	p := Normalize(phrase)
	if p == "" {
		return nil, errors.New("wake phrase is empty")
	}
	if refractory < 0 {
		refractory = 0
	}
	return &Spotter{
		phrase:     p,
		refractory: refractory,
		now:        time.Now,
	}, nil
}

// Phrase returns the normalized wake phrase.
func (s *Spotter) Phrase() string {
	return s.phrase
}

// Match reports whether transcript contains the phrase on word boundaries.
func (s *Spotter) Match(transcript string) bool {
	t := Normalize(transcript)
	if t == "" {
		return false
	}
	return strings.Contains(" "+t+" ", " "+s.phrase+" ")
}

// Spot is Match gated by the refractory period. A successful Spot starts a
// new refractory window.
func (s *Spotter) Spot(transcript string) bool {
	if !s.Match(transcript) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.last.IsZero() && now.Sub(s.last) < s.refractory {
		return false
	}
	s.last = now
	return true
}

// Normalize lowercases text, turns punctuation into spaces and collapses runs
// of whitespace.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			return -1
		default:
			return ' '
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
