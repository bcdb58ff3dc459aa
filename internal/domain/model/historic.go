package model

import "time"

// HistoricAt reconstructs the issue as it looked at cutoff. It returns false
// when the issue had not been created yet at that time.
//
// Comments and reactions created after cutoff are dropped; reactions on kept
// comments are filtered independently since a comment keeps collecting
// reactions after it is posted. LastActivityOn is set to cutoff itself so that
// reconstructed issues are compared at a uniform point in time. Detail lists
// that were never hydrated stay nil.
func (i Issue) HistoricAt(cutoff time.Time) (Issue, bool) {
	if i.CreatedOn.After(cutoff) {
		return Issue{}, false
	}

	historic := i
	historic.Comments = commentsAt(i.Comments, cutoff)
	historic.Reactions = reactionsAt(i.Reactions, cutoff)
	historic.LastActivityOn = cutoff

	return historic, true
}

func commentsAt(comments []Comment, cutoff time.Time) []Comment {
	if comments == nil {
		return nil
	}

	kept := make([]Comment, 0, len(comments))
	for _, c := range comments {
		if c.CreatedOn.After(cutoff) {
			continue
		}
		c.Reactions = reactionsAt(c.Reactions, cutoff)
		kept = append(kept, c)
	}
	return kept
}

func reactionsAt(reactions []Reaction, cutoff time.Time) []Reaction {
	if reactions == nil {
		return nil
	}

	kept := make([]Reaction, 0, len(reactions))
	for _, r := range reactions {
		if !r.CreatedOn.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}
