package report

import (
	"errors"
	"testing"

	"roadportal/internal/errs"
)

func TestCheckTransition(t *testing.T) {
	testCases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusUnderReview, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, false},
		{StatusUnderReview, StatusApproved, true},
		{StatusUnderReview, StatusPending, false},
		{StatusApproved, StatusInProgress, true},
		{StatusApproved, StatusRejected, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusRejected, true},
		{StatusCompleted, StatusApproved, false},
		{StatusCompleted, StatusRejected, false},
		{StatusRejected, StatusPending, false},
	}

	for _, testCase := range testCases {
		t.Run(string(testCase.from)+"->"+string(testCase.to), func(t *testing.T) {
			err := CheckTransition(testCase.from, testCase.to)
			if testCase.ok && err != nil {
				t.Fatalf("CheckTransition() error = %v", err)
			}
			if !testCase.ok && !errors.Is(err, errs.ErrStateConflict) {
				t.Fatalf("CheckTransition() error = %v, want ErrStateConflict", err)
			}
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range Statuses() {
		if IsTerminal(status) && len(NextStatuses(status)) != 0 {
			t.Fatalf("NextStatuses(%s) = %v, want none", status, NextStatuses(status))
		}
	}
}

func TestSeverityRank(t *testing.T) {
	if !(SeverityLow.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityHigh.Rank() &&
		SeverityHigh.Rank() < SeverityCritical.Rank()) {
		t.Fatal("severity ranks are not ordered")
	}
	if Severity("unknown").Rank() != 0 {
		t.Fatal("unknown severity should rank 0")
	}
}

func TestNormalizeFields(t *testing.T) {
	got, err := NormalizeFields(Fields{
		Location:    "  Main St ",
		Barangay:    "Brgy 1",
		DamageType:  "POTHOLE",
		Severity:    "high",
		Description: "Large pothole",
	})
	if err != nil {
		t.Fatalf("NormalizeFields() error = %v", err)
	}
	if got.Location != "Main St" || got.DamageType != DamagePothole || got.Severity != SeverityHigh {
		t.Fatalf("NormalizeFields() = %#v", got)
	}
}

func TestNormalizeFieldsRejectsInvalidInput(t *testing.T) {
	lat := 91.0
	lng := 120.0
	base := Fields{
		Location:    "Main St",
		Barangay:    "Brgy 1",
		DamageType:  "pothole",
		Severity:    "high",
		Description: "Large pothole",
	}

	testCases := []struct {
		name   string
		mutate func(*Fields)
	}{
		{"missing location", func(f *Fields) { f.Location = " " }},
		{"missing barangay", func(f *Fields) { f.Barangay = "" }},
		{"missing description", func(f *Fields) { f.Description = "" }},
		{"bad damage type", func(f *Fields) { f.DamageType = "sinkhole" }},
		{"bad severity", func(f *Fields) { f.Severity = "" }},
		{"latitude out of range", func(f *Fields) { f.Latitude = &lat; f.Longitude = &lng }},
		{"latitude without longitude", func(f *Fields) { f.Latitude = &lng }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			in := base
			testCase.mutate(&in)
			if _, err := NormalizeFields(in); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("NormalizeFields() error = %v, want ErrValidation", err)
			}
		})
	}
}
