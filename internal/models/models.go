package models

// Location is a monitored forest or protected area
type Location struct {
	Name            string  `yaml:"name" json:"forest"`
	District        string  `yaml:"district" json:"district"`
	Province        string  `yaml:"province" json:"province"`
	LocationDetails string  `yaml:"location_details" json:"location_details"`
	Latitude        float64 `yaml:"latitude" json:"latitude"`
	Longitude       float64 `yaml:"longitude" json:"longitude"`
	Elevation       float64 `yaml:"elevation" json:"elevation"`
}

// WeatherSample holds the current conditions at a location.
// Wind speed is in km/h, precipitation in mm over the last hour.
type WeatherSample struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	Precipitation float64 `json:"precipitation"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// RiskAssessment is the output of the scan classifier
type RiskAssessment struct {
	Probability float64   `json:"probability"`
	RiskLevel   RiskLevel `json:"risk_level"`
	FireFlag    bool      `json:"fire_flag"`
}

// ScanResult is the per-location outcome of a scan
type ScanResult struct {
	Forest          string        `json:"forest"`
	District        string        `json:"district"`
	Province        string        `json:"province"`
	LocationDetails string        `json:"location_details"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	Elevation       float64       `json:"elevation"`
	WeatherData     WeatherSample `json:"weather_data"`
	FireRisk        RiskLevel     `json:"fire_risk"`
	Probability     float64       `json:"probability"`
	FireFlag        bool          `json:"fire_flag"`
}

// ScanSummary is returned by a full scan. HighRiskDistricts and Results
// carry the same top-N slice.
type ScanSummary struct {
	TotalScanned      int          `json:"total_scanned"`
	AlertsCreated     int          `json:"alerts_created"`
	HighRiskDistricts []ScanResult `json:"high_risk_districts"`
	Results           []ScanResult `json:"results"`
}

// ManualInput is a single observation submitted for the manual predictor
type ManualInput struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	Precipitation float64 `json:"precipitation"`
	Elevation     float64 `json:"elevation"`
}

// ManualFeatures echoes the model input including the derived VPD
type ManualFeatures struct {
	ManualInput
	VPD float64 `json:"vpd"`
}

type ManualPrediction struct {
	FireOccurred int            `json:"fire_occurred"`
	RiskLevel    RiskLevel      `json:"risk_level"`
	Confidence   string         `json:"confidence"`
	Probability  float64        `json:"probability"`
	Input        ManualFeatures `json:"input"`
	RiskMessage  string         `json:"risk_message"`
}
