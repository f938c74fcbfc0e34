package api

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSubmissionAcceptsComplete(t *testing.T) {
	err := validateSubmission("s-1", "scenes/boat.svg", "A small boat on calm water.", "smooth run", 7, 45, false, "")
	if err != nil {
		t.Errorf("Expected a complete submission to validate. Got: %v", err)
	}
}

func TestValidateSubmissionAttentionTrial(t *testing.T) {
	err := validateSubmission("s-1", "attention/red-square.svg", "A plain red square.", "", 5, 12, true, "red")
	if err != nil {
		t.Errorf("Expected an attention trial with a keyword to validate. Got: %v", err)
	}
}

func TestValidateSubmissionRejections(t *testing.T) {
	type args struct {
		sessionID         string
		imageID           string
		description       string
		feedback          string
		rating            int
		timeSpent         int
		isAttention       bool
		attentionExpected string
	}
	valid := args{
		sessionID:   "s-1",
		imageID:     "scenes/boat.svg",
		description: "A small boat on calm water.",
		rating:      7,
		timeSpent:   45,
	}

	tests := []struct {
		name   string
		mutate func(*args)
	}{
		{"missing session id", func(a *args) { a.sessionID = "" }},
		{"missing image id", func(a *args) { a.imageID = "" }},
		{"oversized image id", func(a *args) { a.imageID = strings.Repeat("i", 201) }},
		{"missing description", func(a *args) { a.description = "" }},
		{"oversized description", func(a *args) { a.description = strings.Repeat("d", 10001) }},
		{"rating below range", func(a *args) { a.rating = 0 }},
		{"rating above range", func(a *args) { a.rating = 11 }},
		{"oversized feedback", func(a *args) { a.feedback = strings.Repeat("f", 2001) }},
		{"negative time spent", func(a *args) { a.timeSpent = -1 }},
		{"attention without keyword", func(a *args) { a.isAttention = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := validateSubmission(a.sessionID, a.imageID, a.description, a.feedback, a.rating, a.timeSpent, a.isAttention, a.attentionExpected)
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			var app *appError
			if !errors.As(err, &app) || app.kind != errValidation {
				t.Errorf("Expected errValidation. Got: %v", err)
			}
		})
	}
}
