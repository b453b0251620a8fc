package models

// WeatherData is a current weather snapshot for a city. It is never persisted.
type WeatherData struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"description"`
}
