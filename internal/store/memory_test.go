package store

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRetention(t *testing.T) {
	s := NewMemoryStore(2)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Save(ProbeResult{Provider: "noaa", Timestamp: base.Add(time.Duration(i) * time.Minute), Up: i != 1})
	}

	history, err := s.History("noaa")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("oldest retained = %v", history[0].Timestamp)
	}

	latest, err := s.Latest("noaa")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !latest.Up || !latest.Timestamp.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore(0)
	if _, err := s.Latest("noaa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest err = %v, want ErrNotFound", err)
	}
	if _, err := s.History("noaa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("History err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreLatestAll(t *testing.T) {
	s := NewMemoryStore(5)
	s.Save(ProbeResult{Provider: "weather.com", Up: true})
	s.Save(ProbeResult{Provider: "accuweather", Up: false})
	s.Save(ProbeResult{Provider: "accuweather", Up: true})

	all := s.LatestAll()
	if len(all) != 2 {
		t.Fatalf("LatestAll length = %d, want 2", len(all))
	}
	if all[0].Provider != "accuweather" || !all[0].Up || all[1].Provider != "weather.com" {
		t.Fatalf("LatestAll = %+v", all)
	}
}
