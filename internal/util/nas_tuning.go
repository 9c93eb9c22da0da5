package util

// NASConfig holds settings tuned for network-mounted session directories
type NASConfig struct {
	Concurrency   int
	BufferSize    int
	RetryAttempts int
	TimeoutSec    int
	IsNASMode     bool
	DetectedInfo  *NetworkInfo
}

// AutoTuneForPath returns worker settings for path, tuned down when it
// lives on network storage. A non-nil nasMode skips detection entirely.
func AutoTuneForPath(path string, nasMode *bool, baseConcurrency int) (*NASConfig, error) {
	cfg := &NASConfig{
		Concurrency: baseConcurrency,
		BufferSize:  128 * 1024,
		TimeoutSec:  10,
	}

	if nasMode != nil {
		cfg.IsNASMode = *nasMode
		if cfg.IsNASMode {
			applyNASOptimizations(cfg)
			InfoLog("NAS mode: explicitly enabled via config/flag")
		} else {
			InfoLog("NAS mode: explicitly disabled via config/flag")
		}
		return cfg, nil
	}

	if path == "" {
		return cfg, nil
	}

	info, err := DetectNetworkFilesystem(path)
	if err != nil {
		WarnLog("Failed to detect filesystem for %s: %v", path, err)
		return cfg, nil
	}

	if info.IsNetwork {
		cfg.IsNASMode = true
		cfg.DetectedInfo = info
		applyNASOptimizations(cfg)

		InfoLog("Network filesystem detected: %s mount at %s", info.Protocol, info.MountPath)
		InfoLog("Auto-tuned settings: %d workers, %dKB buffers, %d retries, %ds timeout",
			cfg.Concurrency, cfg.BufferSize/1024, cfg.RetryAttempts, cfg.TimeoutSec)
		InfoLog("Use --nas-mode=false to disable auto-tuning")
	} else {
		DebugLog("Local filesystem detected for %s - using standard settings", path)
	}

	return cfg, nil
}

// applyNASOptimizations caps concurrency and widens buffers; NAS boxes
// throttle parallel connections but stream large reads well
func applyNASOptimizations(cfg *NASConfig) {
	if cfg.Concurrency > 4 {
		cfg.Concurrency = 4
	} else if cfg.Concurrency == 0 {
		cfg.Concurrency = 2
	}

	cfg.BufferSize = 256 * 1024
	cfg.RetryAttempts = 3
	cfg.TimeoutSec = 30
}
