package model

// ReferenceLink is an optional external link attached to a question.
type ReferenceLink struct {
	Text string `bson:"text" json:"text"`
	URL  string `bson:"url" json:"url"`
}

// Question is one step of the hunt. Answer holds one or more acceptable
// strings, pipe-delimited; matching is case-insensitive.
type Question struct {
	ID             string          `bson:"_id,omitempty" json:"id,omitempty"`
	QuestionNumber int             `bson:"questionNumber" json:"questionNumber"`
	Text           string          `bson:"text" json:"text"`
	Answer         string          `bson:"answer" json:"answer"`
	Hint           string          `bson:"hint,omitempty" json:"hint,omitempty"`
	ImageURL       string          `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Links          []ReferenceLink `bson:"links,omitempty" json:"links,omitempty"`
}

// QuestionView is the participant-facing projection of a question. The
// answer never leaves the server.
type QuestionView struct {
	QuestionNumber int             `json:"questionNumber"`
	Text           string          `json:"text"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Links          []ReferenceLink `json:"links,omitempty"`
}

// View returns the participant-facing projection.
func (q *Question) View() *QuestionView {
	return &QuestionView{
		QuestionNumber: q.QuestionNumber,
		Text:           q.Text,
		ImageURL:       q.ImageURL,
		Links:          q.Links,
	}
}
