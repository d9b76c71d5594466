package listings

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	countryUSA    = "USA"
	countryCanada = "CAN"

	affiliateID = "gapzap"

	// gridTimespan is in hours; only the current airing is needed.
	gridTimespan = 1

	gridTimeLayout = "2006-01-02T15:04:05Z"

	// gridSuffix is appended verbatim after the encoded parameters.
	gridSuffix = "TMSID=&FromPage=TV%20Grid&ActivityID=1&OVDID=&isOverride=true"
)

// canadianPostal matches postal codes that start with a letter (A1A 1A1).
// It is a routing heuristic only.
var canadianPostal = regexp.MustCompile(`^[A-Za-z]`)

// --- wire types ---

type loginRequest struct {
	EmailID      string `json:"emailid"`
	Password     string `json:"password"`
	UserType     string `json:"usertype"`
	FacebookUser string `json:"facebookuser"`
}

type loginResponse struct {
	Token      string            `json:"token"`
	Properties map[string]string `json:"properties"`
}

const (
	propPostalCode = "2002"
	propCountry    = "2003"
	propLineup     = "2004"
)

type gridResponse struct {
	Channels *[]gridChannel `json:"channels"`
}

type gridChannel struct {
	ChannelNo *string     `json:"channelNo"`
	CallSign  *string     `json:"callSign"`
	Events    []gridEvent `json:"events"`
}

type gridEvent struct {
	StartTime *string      `json:"startTime"`
	EndTime   *string      `json:"endTime"`
	Thumbnail *string      `json:"thumbnail"`
	Program   *gridProgram `json:"program"`
}

type gridProgram struct {
	Title *string `json:"title"`
}

func (c gridChannel) firstEvent() (gridEvent, error) {
	if c.ChannelNo == nil || c.CallSign == nil {
		return gridEvent{}, fmt.Errorf("%w: channel missing channelNo or callSign", ErrUpstreamShape)
	}
	if len(c.Events) == 0 {
		return gridEvent{}, fmt.Errorf("%w: channel %s has no events", ErrUpstreamShape, *c.ChannelNo)
	}
	ev := c.Events[0]
	if ev.Program == nil || ev.Program.Title == nil {
		return gridEvent{}, fmt.Errorf("%w: channel %s event missing program title", ErrUpstreamShape, *c.ChannelNo)
	}
	return ev, nil
}

func (e gridEvent) window() (time.Time, time.Time, error) {
	if e.StartTime == nil || e.EndTime == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: event missing start or end time", ErrUpstreamShape)
	}
	start, err := time.ParseInLocation(gridTimeLayout, *e.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start time %q: %v", ErrUpstreamShape, *e.StartTime, err)
	}
	end, err := time.ParseInLocation(gridTimeLayout, *e.EndTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end time %q: %v", ErrUpstreamShape, *e.EndTime, err)
	}
	return start, end, nil
}

// Session is the result of a login. It lives only for one refresh cycle.
type Session struct {
	Token      string
	PostalCode string
	Country    string
	LineupID   string
	Device     string
}

func sessionFromLogin(r loginResponse) (*Session, error) {
	if r.Token == "" {
		return nil, fmt.Errorf("%w: no token in response", ErrAuth)
	}
	zip, ok := r.Properties[propPostalCode]
	if !ok {
		return nil, fmt.Errorf("%w: login properties missing postal code", ErrUpstreamShape)
	}
	country, ok := r.Properties[propCountry]
	if !ok {
		return nil, fmt.Errorf("%w: login properties missing country", ErrUpstreamShape)
	}
	lineup, ok := r.Properties[propLineup]
	if !ok || lineup == "" {
		return nil, fmt.Errorf("%w: login properties missing lineup", ErrUpstreamShape)
	}

	s := &Session{
		Token:      r.Token,
		PostalCode: strings.TrimSpace(zip),
		Country:    strings.TrimSpace(country),
		Device:     "-",
	}
	if id, dev, found := strings.Cut(lineup, ":"); found {
		s.LineupID, s.Device = id, dev
	} else {
		s.LineupID = lineup
	}
	return s, nil
}

// GridParams returns the lineup parameters for a grid request.
func GridParams(s *Session) url.Values {
	country := s.Country
	if country == "" {
		country = countryUSA
		if canadianPostal.MatchString(s.PostalCode) {
			country = countryCanada
		}
	}

	v := url.Values{}
	if country == countryCanada {
		v.Set("postalCode", s.PostalCode)
	} else {
		v.Set("token", s.Token)
	}
	v.Set("lineupId", country+"-"+s.LineupID+"-DEFAULT")
	v.Set("headendId", s.LineupID)
	v.Set("device", s.Device)
	v.Set("country", country)
	v.Set("aid", affiliateID)
	return v
}

// gridQuery builds the raw query string for a grid request anchored at now.
func gridQuery(s *Session, now time.Time) string {
	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(strconv.FormatInt(now.Unix(), 10))
	b.WriteString("&timespan=")
	b.WriteString(strconv.Itoa(gridTimespan))
	b.WriteString("&pref=-&")
	b.WriteString(GridParams(s).Encode())
	b.WriteByte('&')
	b.WriteString(gridSuffix)
	return b.String()
}
