package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/temperature"
)

var featureNames = map[string]channel.Features{
	"hardware_ovp":       channel.FeatureHardwareOVP,
	"remote_sense":       channel.FeatureRemoteSense,
	"remote_programming": channel.FeatureRemoteProgramming,
	"coupling":           channel.FeatureCoupling,
}

// ChannelConfig are the hardware characteristics of one channel.
type ChannelConfig struct {
	UMin               float64  `json:"u_min"`
	UMax               float64  `json:"u_max"`
	UDef               float64  `json:"u_def"`
	IMin               float64  `json:"i_min"`
	IMax               float64  `json:"i_max"`
	IDef               float64  `json:"i_def"`
	PTotal             float64  `json:"p_total"`
	OPPMinLevel        float64  `json:"opp_min_level"`
	OPPDefaultLevel    float64  `json:"opp_default_level"`
	VoltageResolution  float64  `json:"voltage_resolution"`
	CurrentResolution  float64  `json:"current_resolution"`
	LowRangeResolution float64  `json:"low_range_resolution"`
	LowRangeMax        float64  `json:"low_range_max"`
	PowerResolution    float64  `json:"power_resolution"`
	Features           []string `json:"features"`
}

// InstrumentConfig lists the channels of the instrument.
type InstrumentConfig struct {
	Name     string          `json:"name"`
	Channels []ChannelConfig `json:"channels"`
	OTPLevel float64         `json:"otp_level"`
	OTPDelay float64         `json:"otp_delay"`
}

// DefaultChannel is a 40 V / 5 A channel with every feature.
func DefaultChannel() ChannelConfig {
	return ChannelConfig{
		UMax: 40, IMax: 5, PTotal: 155,
		OPPMinLevel: 1, OPPDefaultLevel: 155,
		VoltageResolution: 0.01, CurrentResolution: 0.001,
		LowRangeResolution: 0.0001, LowRangeMax: 0.05,
		PowerResolution: 0.01,
		Features:        []string{"hardware_ovp", "remote_sense", "remote_programming", "coupling"},
	}
}

func (c *InstrumentConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "benchpsu"
	}
	if len(c.Channels) == 0 {
		c.Channels = []ChannelConfig{DefaultChannel(), DefaultChannel()}
	}
	if c.OTPLevel == 0 {
		c.OTPLevel = 75
	}
	if c.OTPDelay == 0 {
		c.OTPDelay = 10
	}
}

func (c InstrumentConfig) Validate() error {
	for i, ch := range c.Channels {
		if _, err := ch.Params(); err != nil {
			return fmt.Errorf("instrument: channel %d: %w", i, err)
		}
	}
	return nil
}

// Params converts the configuration to channel parameters.
func (c ChannelConfig) Params() (channel.Params, error) {
	if c.UMax <= c.UMin || c.IMax <= c.IMin {
		return channel.Params{}, fmt.Errorf("max must exceed min")
	}
	if c.UDef < c.UMin || c.UDef > c.UMax || c.IDef < c.IMin || c.IDef > c.IMax {
		return channel.Params{}, fmt.Errorf("defaults must lie within [min, max]")
	}
	if c.PTotal <= 0 || c.VoltageResolution <= 0 || c.CurrentResolution <= 0 || c.PowerResolution <= 0 {
		return channel.Params{}, fmt.Errorf("p_total and resolutions must be positive")
	}
	var features channel.Features
	for _, name := range c.Features {
		f, ok := featureNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return channel.Params{}, fmt.Errorf("unknown feature %q", name)
		}
		features |= f
	}
	return channel.Params{
		UMin: c.UMin, UMax: c.UMax, UDef: c.UDef,
		IMin: c.IMin, IMax: c.IMax, IDef: c.IDef,
		PTotal:                    c.PTotal,
		OPPMinLevel:               c.OPPMinLevel,
		OPPDefaultLevel:           c.OPPDefaultLevel,
		VoltageResolution:         c.VoltageResolution,
		CurrentResolution:         c.CurrentResolution,
		CurrentLowRangeResolution: c.LowRangeResolution,
		CurrentLowRangeMax:        c.LowRangeMax,
		PowerResolution:           c.PowerResolution,
		Features:                  features,
	}, nil
}

// Build creates the channels bound to driver and their temperature sensors.
func (c InstrumentConfig) Build(driver channel.Driver) ([]*channel.Channel, []*temperature.Sensor, error) {
	channels := make([]*channel.Channel, 0, len(c.Channels))
	for i, cc := range c.Channels {
		p, err := cc.Params()
		if err != nil {
			return nil, nil, fmt.Errorf("instrument: channel %d: %w", i, err)
		}
		channels = append(channels, channel.New(i, p, driver))
	}
	return channels, temperature.NewSensors(len(channels), c.OTPLevel, c.OTPDelay), nil
}
