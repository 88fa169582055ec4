package channel

// Features is the capability bit set reported by the channel hardware.
type Features uint32

const (
	FeatureHardwareOVP Features = 1 << iota
	FeatureRemoteSense
	FeatureRemoteProgramming
	FeatureCoupling
)

// Has reports whether every bit of f2 is set.
func (f Features) Has(f2 Features) bool { return f&f2 == f2 }

func (c *Channel) SupportsHardwareOVP() bool { return c.Params.Features.Has(FeatureHardwareOVP) }

func (c *Channel) SupportsRemoteSensing() bool { return c.Params.Features.Has(FeatureRemoteSense) }

func (c *Channel) SupportsRemoteProgramming() bool {
	return c.Params.Features.Has(FeatureRemoteProgramming)
}

func (c *Channel) SupportsCoupling() bool { return c.Params.Features.Has(FeatureCoupling) }
