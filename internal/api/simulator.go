package api

import (
	"math"
	"math/rand"
	"sync"

	"wildfire/internal/models"
)

// Simulator produces plausible hot-season weather for a Nepal forest when the
// live provider cannot be reached.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws temperature ~ N(35,5) °C, humidity ~ N(30,10) %,
// wind ~ N(12,5) km/h clamped to [2,35] and precipitation ~ Exp(mean 0.5) mm.
func (s *Simulator) Sample() models.WeatherSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.WeatherSample{
		Temperature:   35 + s.rng.NormFloat64()*5,
		Humidity:      30 + s.rng.NormFloat64()*10,
		WindSpeed:     math.Min(35, math.Max(2, 12+s.rng.NormFloat64()*5)),
		Precipitation: s.rng.ExpFloat64() * 0.5,
	}
}
