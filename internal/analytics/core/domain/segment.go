package domain

import "time"

// Segment names a predicate over a UserRecord. Segments carry no state:
// membership is a pure function of the record and the evaluation time.
type Segment string

const (
	SegmentAll        Segment = "all"
	SegmentToday      Segment = "today"
	SegmentNew        Segment = "new"
	SegmentPower      Segment = "power"
	SegmentAtRisk     Segment = "at_risk"
	SegmentVoice      Segment = "voice"
	SegmentImages     Segment = "images"
	SegmentVideos     Segment = "videos"
	SegmentSubscribed Segment = "subscribed"
)

// powerUserMessageThreshold is the lifetime message count that makes a
// user a "power" user.
const powerUserMessageThreshold = 50

// Segments lists every segment in badge display order.
func Segments() []Segment {
	return []Segment{
		SegmentAll,
		SegmentToday,
		SegmentNew,
		SegmentPower,
		SegmentAtRisk,
		SegmentVoice,
		SegmentImages,
		SegmentVideos,
		SegmentSubscribed,
	}
}

// KnownSegment reports whether name is a recognized segment.
func KnownSegment(name string) bool {
	for _, s := range Segments() {
		if string(s) == name {
			return true
		}
	}
	return false
}

// StartOfDay returns local midnight of t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MatchesSegment evaluates the named segment's predicate against u at
// time now. Unknown segments match nothing.
func MatchesSegment(u *UserRecord, s Segment, now time.Time) bool {
	switch s {
	case SegmentAll:
		return true
	case SegmentToday:
		return !u.LastActive.IsZero() && !u.LastActive.Before(StartOfDay(now))
	case SegmentNew:
		signup := u.SignupTime()
		return !signup.IsZero() && !signup.Before(now.Add(-7*24*time.Hour))
	case SegmentPower:
		return u.MessagesSent >= powerUserMessageThreshold
	case SegmentAtRisk:
		// Never-active users are at risk; activity at exactly the 7-day
		// boundary is not (strict Before).
		return u.LastActive.IsZero() || u.LastActive.Before(now.Add(-7*24*time.Hour))
	case SegmentVoice:
		return u.VoiceSessions > 0
	case SegmentImages:
		return u.ImagesGenerated > 0
	case SegmentVideos:
		return u.VideosGenerated > 0
	case SegmentSubscribed:
		return u.Subscribed
	default:
		return false
	}
}

// CountSegments computes membership counts for every segment over the
// full (unfiltered) population so badge counts never reflect the active
// filter.
func CountSegments(users []UserRecord, now time.Time) map[Segment]int {
	counts := make(map[Segment]int, len(Segments()))
	for _, s := range Segments() {
		counts[s] = 0
	}
	for i := range users {
		for _, s := range Segments() {
			if MatchesSegment(&users[i], s, now) {
				counts[s]++
			}
		}
	}
	return counts
}
