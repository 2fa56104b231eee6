package models

// Record is one row of an uploaded file. Fields holds every column other than
// the text column, keyed by header.
type Record struct {
	Row    int               `json:"row"`
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields,omitempty"`
}

type Label string

type Leaning string

const (
	LeaningPositive Leaning = "positive"
	LeaningNeutral  Leaning = "neutral"
	LeaningNegative Leaning = "negative"
)

type LabeledRecord struct {
	Record
	Polarity float64 `json:"polarity"`
	Label    Label   `json:"label"`
}
