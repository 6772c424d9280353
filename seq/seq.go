package seq

import (
	"fmt"
)

/*
Custom goconvey assertions over recorded event histories.

Concurrency tests in this repo don't get to assert on a single total
order -- the scheduler owns that -- but they *can* assert on the
partial orders the flume is contractually bound to keep, like "each
sender's values drain in the order that sender pushed them".  So the
tests record a history of string events into a blackbox channel,
drain it, and make claims about orderings within the slice.

Any history containing the keywords in pairwise order passes:

	So([]string{"a", "c", "b"}, ShouldSequence, "a", "b") // ok

Out-of-order keywords fail:

	So([]string{"b", "a", "c"}, ShouldSequence, "a", "b") // fail

Recurring keywords are fine so long as, at every point in the
history, each keyword has occurred at least as often as the keyword
that is supposed to follow it, and by the end of the history each
keyword has occurred exactly as often as its follower:

	So([]string{"a", "c", "a", "b", "b"}, ShouldSequence, "a", "b") // ok
	So([]string{"a", "c", "b", "b", "a"}, ShouldSequence, "a", "b") // fail
	So([]string{"a", "c", "a", "b"}, ShouldSequence, "a", "b")      // fail
*/
func ShouldSequence(actual interface{}, expected ...interface{}) string {
	history, keywords, complaint := coerce(actual, expected)
	if complaint != "" {
		return complaint
	}

	tally := make(map[string]int, len(keywords))
	rank := make(map[string]int, len(keywords))
	for i, kw := range keywords {
		rank[kw] = i
	}
	for i, evt := range history {
		j, tracked := rank[evt]
		if !tracked {
			continue
		}
		tally[evt]++
		if j > 0 && tally[keywords[j-1]] < tally[evt] {
			return fmt.Sprintf("sequence broken at index %d: %q has now occurred %d times, overtaking %q which should precede it but has only occurred %d times",
				i, evt, tally[evt], keywords[j-1], tally[keywords[j-1]])
		}
	}
	// the tail of the history must not leave earlier keywords unanswered.
	for j := 1; j < len(keywords); j++ {
		if tally[keywords[j-1]] > tally[keywords[j]] {
			return fmt.Sprintf("sequence broken at end of history: %q occurred %d times but %q, which should follow it, only occurred %d times",
				keywords[j-1], tally[keywords[j-1]], keywords[j], tally[keywords[j]])
		}
	}
	if tally[keywords[0]] == 0 {
		return fmt.Sprintf("sequence broken: %q never occurred at all", keywords[0])
	}
	return ""
}

/*
Asserts that every occurrence of the first keyword comes before the
first occurrence of the second:

	So([]string{"a", "a", "a", "b"}, ShouldAllPrecede, "a", "b") // ok
	So([]string{"a", "a", "b", "a"}, ShouldAllPrecede, "a", "b") // fail
*/
func ShouldAllPrecede(actual interface{}, expected ...interface{}) string {
	history, keywords, complaint := coerce(actual, expected)
	if complaint != "" {
		return complaint
	}
	if len(keywords) != 2 {
		return "You must provide exactly two keywords to this assertion."
	}
	seenLatter := -1
	for i, evt := range history {
		switch evt {
		case keywords[1]:
			if seenLatter < 0 {
				seenLatter = i
			}
		case keywords[0]:
			if seenLatter >= 0 {
				return fmt.Sprintf("precedence broken: %q at index %d follows %q at index %d",
					keywords[0], i, keywords[1], seenLatter)
			}
		}
	}
	return ""
}

func coerce(actual interface{}, expected []interface{}) (history []string, keywords []string, complaint string) {
	history, ok := actual.([]string)
	if !ok {
		return nil, nil, "You must provide a string slice as the first argument to this assertion."
	}
	if len(expected) < 2 {
		return nil, nil, "You must provide at least two keywords as expectations to this assertion."
	}
	for _, v := range expected {
		kw, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Sprintf("You must provide strings as expected values, not %T.", v)
		}
		keywords = append(keywords, kw)
	}
	return history, keywords, ""
}
