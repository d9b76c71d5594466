package listings

import (
	"sort"
	"strings"
	"time"
)

// Program is the current airing on a channel.
type Program struct {
	Title    string    `json:"title,omitempty"`
	ImageURL string    `json:"image_url"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Current reports whether now falls inside [Start, End).
func (p Program) Current(now time.Time) bool {
	return !now.Before(p.Start) && now.Before(p.End)
}

// Channel is one row of the lookup tables.
type Channel struct {
	Number   string  `json:"number"`
	CallSign string  `json:"call_sign"`
	Program  Program `json:"program"`
}

// cache is never mutated after it is published.
type cache struct {
	callSigns map[string]string
	programs  map[string]Program
	builtAt   time.Time
}

func emptyCache() *cache {
	return &cache{
		callSigns: map[string]string{},
		programs:  map[string]Program{},
	}
}

// ChannelKey normalises a channel number to the zero-padded form used as
// the lookup key ("7" -> "0007", "12.3" -> "12.3").
func ChannelKey(ch string) string {
	ch = strings.TrimSpace(ch)
	if len(ch) >= 4 {
		return ch
	}
	return strings.Repeat("0", 4-len(ch)) + ch
}

// buildCache turns grid rows into a fresh cache. Titles of channels whose
// first event is not airing at now are carried over from prev.
func buildCache(rows []gridChannel, prev *cache, now time.Time) (*cache, error) {
	next := &cache{
		callSigns: make(map[string]string, len(rows)),
		programs:  make(map[string]Program, len(rows)),
		builtAt:   now,
	}

	for _, row := range rows {
		ev, err := row.firstEvent()
		if err != nil {
			return nil, err
		}
		start, end, err := ev.window()
		if err != nil {
			return nil, err
		}

		key := ChannelKey(*row.ChannelNo)
		next.callSigns[key] = *row.CallSign

		prog := Program{Start: start, End: end, ImageURL: PlaceholderImageURL}
		if prog.Current(now) {
			prog.Title = *ev.Program.Title
			prog.ImageURL = thumbnailURL(ev.Thumbnail)
		} else if old, ok := prev.programs[key]; ok {
			prog.Title = old.Title
		}
		next.programs[key] = prog
	}

	return next, nil
}

func (c *cache) channels() []Channel {
	out := make([]Channel, 0, len(c.callSigns))
	for key, cs := range c.callSigns {
		out = append(out, Channel{Number: key, CallSign: cs, Program: c.programs[key]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func thumbnailURL(thumb *string) string {
	if thumb == nil || *thumb == "" {
		return PlaceholderImageURL
	}
	return ImageBaseURL + *thumb + ".jpg"
}
