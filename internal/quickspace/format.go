package quickspace

import (
	"strings"

	"github.com/i474232898/quickspace/internal/quickevents"
	"github.com/i474232898/quickspace/internal/resources"
	"github.com/i474232898/quickspace/internal/weather"
)

// conditionKeywords are checked in order; the first hit wins.
var conditionKeywords = []struct {
	keyword string
	id      string
}{
	{"clouds", resources.WeatherClouds},
	{"rain", resources.WeatherRain},
	{"clear", resources.WeatherClear},
	{"storm", resources.WeatherStorm},
	{"snow", resources.WeatherSnow},
	{"wind", resources.WeatherWind},
	{"mist", resources.WeatherMist},
}

// formatWeather renders "<city> <temp><units> · <condition>". The city slot
// stays as an empty string when hidden, so the line then starts with a space.
func formatWeather(info *weather.Info, showCity, showText bool, strs quickevents.StringLookup) string {
	var b strings.Builder
	if showCity {
		b.WriteString(info.City)
	}
	b.WriteString(" ")
	b.WriteString(info.Temp)
	b.WriteString(info.TempUnits)
	if showText {
		b.WriteString(" · ")
		b.WriteString(localizeCondition(info.Condition, strs))
	}
	return b.String()
}

func localizeCondition(condition string, strs quickevents.StringLookup) string {
	lower := strings.ToLower(condition)
	for _, k := range conditionKeywords {
		if strings.Contains(lower, k.keyword) {
			return strs.String(k.id)
		}
	}
	return condition
}
