package strategy

// DefaultRegistry returns a registry populated with the ported
// selection strategy set.
func DefaultRegistry() (Registry, error) {
	registry := NewRegistry()

	all := []Strategy{
		NewVolumeSurge(),
		NewTurtleTrade(),
		NewKeepIncreasing(),
		NewBacktraceMA250(),
		NewParkingApron(),
		NewLowATR(),
		NewBreakthroughPlatform(),
		NewClimaxLimitDown(),
		NewHighTightFlag(),
		NewLowBacktraceIncrease(),
	}

	for _, s := range all {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
