// Package temperature models the thermal zones guarded by over-temperature
// protection. Sensor SensorAux watches the chassis; the channel sensors follow
// at SensorCH1 + channel index.
package temperature

import "fmt"

const (
	SensorAux = 0
	SensorCH1 = 1
)

// ChannelSensor returns the sensor index bound to a channel.
func ChannelSensor(channelIndex int) int { return SensorCH1 + channelIndex }

// ProtectionConfig is the OTP configuration of one sensor.
type ProtectionConfig struct {
	State bool
	Level float64
	Delay float64
}

// Sensor is one temperature zone.
type Sensor struct {
	Index       int
	Name        string
	ProtConf    ProtectionConfig
	Tripped     bool
	Temperature float64
}

// NewSensors allocates the AUX sensor plus one sensor per channel.
func NewSensors(channels int, level, delay float64) []*Sensor {
	sensors := make([]*Sensor, 0, channels+1)
	sensors = append(sensors, &Sensor{Index: SensorAux, Name: "AUX", ProtConf: ProtectionConfig{State: true, Level: level, Delay: delay}})
	for i := 0; i < channels; i++ {
		sensors = append(sensors, &Sensor{
			Index:    ChannelSensor(i),
			Name:     fmt.Sprintf("CH%d", i+1),
			ProtConf: ProtectionConfig{Level: level, Delay: delay},
		})
	}
	return sensors
}

func (s *Sensor) IsTripped() bool { return s.Tripped }

func (s *Sensor) ClearProtection() { s.Tripped = false }
