package form

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
)

func TestUnmarshalEventInput(t *testing.T) {
	in := url.Values{
		"title":        {"Go Day", "ignored"},
		"description":  {"A full day of Go talks."},
		"date":         {"2025-06-01T09:30"},
		"location":     {"Lisbon"},
		"locationType": {"IN_PERSON"},
		"unknown":      {"x"},
	}
	var got model.EventInput
	if err := Unmarshal(in, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Title != "Go Day" || got.LocationType != model.LocationInPerson || got.Date != "2025-06-01T09:30" {
		t.Fatalf("decoded %+v", got)
	}
}

func TestUnmarshalIntAndBool(t *testing.T) {
	var review model.ReviewInput
	if err := Unmarshal(url.Values{"rating": {" 4 "}, "comment": {"nice"}}, &review); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if review.Rating != 4 || review.Comment != "nice" {
		t.Fatalf("decoded %+v", review)
	}

	var resp struct {
		Accept bool `form:"accept"`
	}
	_ = Unmarshal(url.Values{"accept": {"on"}}, &resp)
	if !resp.Accept {
		t.Fatal("checkbox value \"on\" should decode as true")
	}
}

func TestUnmarshalBadInt(t *testing.T) {
	var review model.ReviewInput
	err := Unmarshal(url.Values{"rating": {"five"}}, &review)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "rating" {
		t.Fatalf("err = %v, want FieldError on rating", err)
	}
}

func TestUnmarshalInvalidTarget(t *testing.T) {
	var review model.ReviewInput
	for _, target := range []any{nil, review, (*model.ReviewInput)(nil)} {
		var ie *InvalidUnmarshalError
		if err := Unmarshal(url.Values{}, target); !errors.As(err, &ie) {
			t.Errorf("target %T: err = %v", target, err)
		}
	}
}
