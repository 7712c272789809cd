package weather

import (
	"testing"
	"time"
)

func TestAggregateReadings(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	readings := []ProviderReading{
		{ProviderName: "a", Timestamp: t0, TemperatureC: 10, Condition: ConditionRain, ConditionText: "light rain"},
		{ProviderName: "b", Timestamp: t0.Add(time.Minute), TemperatureC: 14, Condition: ConditionCloudy, ConditionText: "Clouds"},
		{ProviderName: "c", Timestamp: t0, TemperatureC: 12, Condition: ConditionRain, ConditionText: "Rain"},
	}

	snap := AggregateReadings(berlin, readings)

	if snap.Temperature != 12 {
		t.Fatalf("expected mean 12, got %v", snap.Temperature)
	}
	if snap.Condition != ConditionRain {
		t.Fatalf("expected rain, got %s", snap.Condition)
	}
	if snap.ConditionText != "light rain" {
		t.Fatalf("expected text of first rain reading, got %q", snap.ConditionText)
	}
	if !snap.Timestamp.Equal(t0.Add(time.Minute)) {
		t.Fatalf("expected newest timestamp, got %v", snap.Timestamp)
	}
	if len(snap.Providers) != 3 {
		t.Fatalf("expected 3 contributions, got %d", len(snap.Providers))
	}
}

func TestAggregateReadingsTieGoesToFirst(t *testing.T) {
	readings := []ProviderReading{
		{Condition: ConditionSnow},
		{Condition: ConditionClear, ConditionText: "Sunny"},
	}
	snap := AggregateReadings(berlin, readings)
	if snap.Condition != ConditionSnow {
		t.Fatalf("expected snow, got %s", snap.Condition)
	}
	if snap.ConditionText != "snow" {
		t.Fatalf("expected fallback text, got %q", snap.ConditionText)
	}
}

func TestAggregateReadingsEmpty(t *testing.T) {
	snap := AggregateReadings(berlin, nil)
	if snap.Condition != ConditionUnknown || snap.Timestamp.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
