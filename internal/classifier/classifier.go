// Package classifier talks to the text classifier collaborator and adapts
// whatever it returns into a probability that a posting is fake.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultTimeout = 5 * time.Second

var ErrNoPrediction = errors.New("classifier response carried no prediction")

var tracer = otel.Tracer("jobmate/verifier-service/classifier")

// Scorer returns the probability in [0,1] that text describes a fake posting.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Func adapts a plain function to Scorer.
type Func func(ctx context.Context, text string) (float64, error)

func (f Func) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Prediction is the raw answer of a classifier. Depending on the model it
// carries a calibrated probability, an uncalibrated decision score or only a
// hard label.
type Prediction struct {
	FakeProbability *float64 `json:"fake_probability,omitempty"`
	DecisionScore   *float64 `json:"decision_score,omitempty"`
	Label           *int     `json:"label,omitempty"`
}

// Probability collapses p into a fake probability. A direct probability wins
// and is clamped; a decision score goes through the logistic function; a
// label of 1 is 1.0 and anything else 0.0.
func (p Prediction) Probability() (float64, error) {
	switch {
	case p.FakeProbability != nil && !math.IsNaN(*p.FakeProbability):
		return math.Max(0, math.Min(1, *p.FakeProbability)), nil
	case p.DecisionScore != nil && !math.IsNaN(*p.DecisionScore):
		return 1 / (1 + math.Exp(-*p.DecisionScore)), nil
	case p.Label != nil:
		if *p.Label == 1 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, ErrNoPrediction
}

// HTTPClient scores text by POSTing {"text": ...} to a classifier endpoint.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{url: url, client: &http.Client{Timeout: timeout}}
}

type scoreRequest struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Score(ctx context.Context, text string) (float64, error) {
	ctx, span := tracer.Start(ctx, "classifier.Score")
	defer span.End()

	p, err := c.predict(ctx, text)
	if err == nil {
		var prob float64
		prob, err = p.Probability()
		if err == nil {
			span.SetAttributes(attribute.Float64("classifier.fake_probability", prob))
			return prob, nil
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "classifier call failed")
	return 0, err
}

func (c *HTTPClient) predict(ctx context.Context, text string) (Prediction, error) {
	payload, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("classifier returned %d", resp.StatusCode)
	}

	var p Prediction
	if err := json.Unmarshal(body, &p); err != nil {
		return Prediction{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return p, nil
}
