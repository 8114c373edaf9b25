package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobmate/verifier-service/internal/classifier"
)

func f(v float64) *float64 { return &v }
func i(v int) *int { return &v }

func TestPrediction_Probability(t *testing.T) {
	cases := []struct {
		name string
		p    classifier.Prediction
		want float64
	}{
		{"direct", classifier.Prediction{FakeProbability: f(0.73)}, 0.73},
		{"direct clamped high", classifier.Prediction{FakeProbability: f(1.4)}, 1},
		{"direct clamped low", classifier.Prediction{FakeProbability: f(-0.2)}, 0},
		{"direct wins over score", classifier.Prediction{FakeProbability: f(0.1), DecisionScore: f(5)}, 0.1},
		{"score zero", classifier.Prediction{DecisionScore: f(0)}, 0.5},
		{"score positive", classifier.Prediction{DecisionScore: f(2)}, 1 / (1 + math.Exp(-2))},
		{"score wins over label", classifier.Prediction{DecisionScore: f(-3), Label: i(1)}, 1 / (1 + math.Exp(3))},
		{"label fake", classifier.Prediction{Label: i(1)}, 1},
		{"label real", classifier.Prediction{Label: i(0)}, 0},
		{"label other", classifier.Prediction{Label: i(7)}, 0},
		{"NaN probability falls through", classifier.Prediction{FakeProbability: f(math.NaN()), Label: i(1)}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.p.Probability()
			if err != nil {
				t.Fatalf("Probability: %v", err)
			}
			if math.Abs(got-c.want) > 1e-12 {
				t.Errorf("Probability = %v, want %v", got, c.want)
			}
		})
	}
}

func TestPrediction_Empty(t *testing.T) {
	if _, err := (classifier.Prediction{}).Probability(); !errors.Is(err, classifier.ErrNoPrediction) {
		t.Errorf("err = %v, want ErrNoPrediction", err)
	}
}

func TestHTTPClient_Score(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotText = body.Text
		fmt.Fprint(w, `{"decision_score": 0}`)
	}))
	defer srv.Close()

	got, err := classifier.NewHTTPClient(srv.URL, time.Second).Score(context.Background(), "data entry clerk")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 0.5 {
		t.Errorf("Score = %v, want 0.5", got)
	}
	if gotText != "data entry clerk" {
		t.Errorf("sent text = %q", gotText)
	}
}

func TestHTTPClient_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"fake_probability":`)
		}},
		{"no prediction", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(c.handler)
			defer srv.Close()

			if _, err := classifier.NewHTTPClient(srv.URL, 100*time.Millisecond).Score(context.Background(), "x"); err == nil {
				t.Error("Score expected error, got nil")
			}
		})
	}
}

func TestFunc(t *testing.T) {
	var s classifier.Scorer = classifier.Func(func(ctx context.Context, text string) (float64, error) {
		return float64(len(text)) / 10, nil
	})
	got, err := s.Score(context.Background(), "abcde")
	if err != nil || got != 0.5 {
		t.Errorf("Score = %v, %v; want 0.5, nil", got, err)
	}
}
