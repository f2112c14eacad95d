package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 5, 6, 10, 15, 30, 0, time.UTC)

func TestPrepareAppliesTaskDefaults(t *testing.T) {
	task := &Task{Owner: Owner{UserID: "u1"}, Title: "Rever OKRs", Priority: " HIGH "}
	if err := Prepare(task, fixedNow); err != nil {
		t.Fatalf("prepare task: %v", err)
	}
	if task.Scope != "personal" || task.Priority != "high" {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if task.Labels == nil {
		t.Fatal("labels should default to an empty list")
	}
}

func TestPrepareRejectsMissingUser(t *testing.T) {
	err := Prepare(&Note{Title: "n", Content: "c"}, fixedNow)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Collection != CollectionNote || !strings.Contains(verr.Error(), "user_id") {
		t.Fatalf("unexpected validation error: %v", verr)
	}
}

func TestPrepareRejectsOutOfRangeValues(t *testing.T) {
	cases := map[string]Record{
		"priority":       &Task{Owner: Owner{UserID: "u1"}, Title: "t", Priority: "someday"},
		"horizon":        &Goal{Owner: Owner{UserID: "u1"}, Title: "g", Horizon: "decade"},
		"progress":       &Goal{Owner: Owner{UserID: "u1"}, Title: "g", Progress: 120},
		"health type":    &HealthLog{Owner: Owner{UserID: "u1"}, Type: "sleep"},
		"target per day": &Habit{Owner: Owner{UserID: "u1"}, Name: "ler", TargetPerDay: -1},
		"meal date":      &MealPlan{Owner: Owner{UserID: "u1"}},
		"user email":     &User{Name: "Ana"},
		"ai kind":        &AIRequest{Owner: Owner{UserID: "u1"}},
	}
	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			var verr *ValidationError
			if err := Prepare(record, fixedNow); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestEventEndBeforeStart(t *testing.T) {
	event := &Event{
		Owner:     Owner{UserID: "u1"},
		Title:     "Reunião",
		StartTime: NewDateTime(fixedNow),
		EndTime:   NewDateTime(fixedNow.Add(-time.Hour)),
	}
	if err := Prepare(event, fixedNow); err == nil {
		t.Fatal("expected end_time before start_time to fail")
	}

	event.EndTime = NewDateTime(fixedNow.Add(time.Hour))
	if err := Prepare(event, fixedNow); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	if event.Category != "personal" {
		t.Fatalf("expected default category, got %q", event.Category)
	}
}

func TestHealthLogDefaultsTimestamp(t *testing.T) {
	log := &HealthLog{Owner: Owner{UserID: "u1"}, Value: 80}
	if err := Prepare(log, fixedNow); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if log.Type != "energy" || !log.Timestamp.Equal(fixedNow) {
		t.Fatalf("unexpected defaults: type=%q timestamp=%v", log.Type, log.Timestamp)
	}
}

func TestEventPatchValidate(t *testing.T) {
	empty := ""
	if err := (&EventPatch{Title: &empty}).Validate(); err == nil {
		t.Fatal("blank title in patch should fail")
	}

	start := NewDateTime(fixedNow)
	end := NewDateTime(fixedNow.Add(-time.Minute))
	if err := (&EventPatch{StartTime: &start, EndTime: &end}).Validate(); err == nil {
		t.Fatal("end before start in patch should fail")
	}

	if !(&EventPatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
}

func TestDateJSON(t *testing.T) {
	var contact Contact
	if err := json.Unmarshal([]byte(`{"user_id":"u1","name":"Rita","birthday":"1990-05-06"}`), &contact); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if contact.Birthday == nil || contact.Birthday.String() != "1990-05-06" {
		t.Fatalf("unexpected birthday: %v", contact.Birthday)
	}
	if !contact.Birthday.SameMonthDay(fixedNow) {
		t.Fatal("birthday should match month and day of fixedNow")
	}
	if contact.Birthday.SameDay(fixedNow) {
		t.Fatal("birthday in 1990 is not the same calendar day")
	}

	raw, err := json.Marshal(contact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"birthday":"1990-05-06"`) {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestDateTimeParsing(t *testing.T) {
	cases := map[string]string{
		"2024-05-06T10:15:30Z":      "2024-05-06T10:15:30Z",
		"2024-05-06T11:15:30+01:00": "2024-05-06T10:15:30Z",
		"2024-05-06T10:15:30":       "2024-05-06T10:15:30Z",
		"2024-05-06T10:15:30.987Z":  "2024-05-06T10:15:30Z",
		"2024-05-06":                "2024-05-06T00:00:00Z",
	}
	for input, want := range cases {
		got, err := ParseDateTime(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got.String() != want {
			t.Fatalf("parse %q = %q, want %q", input, got.String(), want)
		}
	}

	if _, err := ParseDateTime("amanhã"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRegistryCoversCollections(t *testing.T) {
	names := Collections()
	if len(names) != 12 {
		t.Fatalf("expected 12 collections, got %d: %v", len(names), names)
	}
	for _, name := range names {
		record, ok := New(name)
		if !ok || record.Collection() != name {
			t.Fatalf("registry mismatch for %q", name)
		}
	}
	if _, ok := New("post"); ok {
		t.Fatal("unknown collection should not resolve")
	}
}
