package sentiment

import "time"

// Sentiment is the label persisted next to a score.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
)

// TimestampLayout is the second-precision format stored with each record.
const TimestampLayout = "2006-01-02 15:04:05"

// Thresholds are the inclusive score bounds for the Positive and Negative
// labels. Anything strictly between them is Neutral.
type Thresholds struct {
	Positive int
	Negative int
}

// DefaultThresholds label any positive score Positive and any negative
// score Negative.
var DefaultThresholds = Thresholds{Positive: 1, Negative: -1}

func (t Thresholds) Label(score int) Sentiment {
	switch {
	case score >= t.Positive:
		return Positive
	case score <= t.Negative:
		return Negative
	default:
		return Neutral
	}
}

// Label applies DefaultThresholds.
func Label(score int) Sentiment {
	return DefaultThresholds.Label(score)
}

// Record is one scored review ready to be stored.
type Record struct {
	Text      string
	Score     int
	Sentiment Sentiment
	Timestamp string
}

// Classifier pairs a Scorer with Thresholds so that a Record's label is
// always derived from its score.
type Classifier struct {
	scorer     *Scorer
	thresholds Thresholds
}

func NewClassifier(scorer *Scorer, thresholds Thresholds) *Classifier {
	return &Classifier{scorer: scorer, thresholds: thresholds}
}

// Classify scores text and stamps the record with at.
func (c *Classifier) Classify(text string, at time.Time) Record {
	score := c.scorer.Score(text)
	return Record{
		Text:      text,
		Score:     score,
		Sentiment: c.thresholds.Label(score),
		Timestamp: at.Format(TimestampLayout),
	}
}
