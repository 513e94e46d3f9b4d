package wave

var fallbackWaves = []Config{
	{
		EnemyCount:     3,
		SpawnInterval:  120,
		EnemySpeed:     0.5,
		Aggressiveness: 0.1,
		SpecialEvent:   EventNone,
		Message:        "System Boot... Initializing Protocol.",
		Theme:          &Theme{Name: "Glitch Bugs", Color: "#ef4444", Description: "Basic system anomalies."},
		Layout: []Platform{
			{X: 100, Y: 400, W: 200, H: 20},
			{X: 500, Y: 400, W: 200, H: 20},
			{X: 300, Y: 250, W: 200, H: 20},
		},
	},
	{
		EnemyCount:     5,
		SpawnInterval:  100,
		EnemySpeed:     0.7,
		Aggressiveness: 0.3,
		SpecialEvent:   EventNone,
		Message:        "Threat Detected. Swarm incoming.",
		Theme:          &Theme{Name: "Neon Wasps", Color: "#eab308", Description: "Fast moving stinging units."},
		Layout: []Platform{
			{X: 50, Y: 450, W: 150, H: 20},
			{X: 600, Y: 450, W: 150, H: 20},
			{X: 200, Y: 300, W: 400, H: 20},
			{X: 350, Y: 150, W: 100, H: 20},
		},
	},
	{
		EnemyCount:     8,
		SpawnInterval:  80,
		EnemySpeed:     1.0,
		Aggressiveness: 0.6,
		SpecialEvent:   EventBlizzard,
		Message:        "BLIZZARD PROTOCOL ACTIVE",
		Theme:          &Theme{Name: "Frost Golems", Color: "#3b82f6", Description: "Heavily armored ice constructs."},
		Layout: []Platform{
			{X: 100, Y: 500, W: 100, H: 20},
			{X: 600, Y: 500, W: 100, H: 20},
			{X: 100, Y: 350, W: 100, H: 20},
			{X: 600, Y: 350, W: 100, H: 20},
			{X: 100, Y: 200, W: 100, H: 20},
			{X: 600, Y: 200, W: 100, H: 20},
			{X: 350, Y: 350, W: 100, H: 20},
		},
	},
	{
		EnemyCount:     12,
		SpawnInterval:  60,
		EnemySpeed:     1.2,
		Aggressiveness: 0.8,
		SpecialEvent:   EventNone,
		Message:        "CRITICAL ALERT: OVERRUN",
		Theme:          &Theme{Name: "Void Stalkers", Color: "#a855f7", Description: "Entities from the null sector."},
		Layout: []Platform{
			{X: 100, Y: 450, W: 600, H: 20},
			{X: 200, Y: 300, W: 400, H: 20},
			{X: 300, Y: 150, W: 200, H: 20},
		},
	},
}

// FallbackCount is the number of entries in the built-in table.
func FallbackCount() int {
	return len(fallbackWaves)
}

// Fallback returns the built-in config for a wave. Waves past the end of the
// table repeat the last entry; wave numbers below 1 use the first.
func Fallback(waveNumber int) Config {
	idx := waveNumber - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(fallbackWaves)-1 {
		idx = len(fallbackWaves) - 1
	}
	return fallbackWaves[idx].Clone()
}

// BossWave returns the config for a boss encounter. The arena is cleared of
// floating platforms and a single boss spawns.
func BossWave() Config {
	return Config{
		EnemyCount:     1,
		SpawnInterval:  60,
		EnemySpeed:     2,
		Aggressiveness: 1,
		SpecialEvent:   EventBoss,
		Message:        "WARNING: BOSS APPROACHING",
		Theme:          &Theme{Name: "GLACIAL TITAN", Color: "#ef4444", Description: "Apex Predator"},
		Layout:         []Platform{},
	}
}

// IsBossWave reports whether waveNumber is a boss wave when bosses come every n waves.
func IsBossWave(waveNumber, every int) bool {
	return every > 0 && waveNumber > 0 && waveNumber%every == 0
}

// DefaultLayout is used when a config carries no layout at all.
func DefaultLayout() []Platform {
	return []Platform{
		{X: 100, Y: 400, W: 200, H: 20},
		{X: 500, Y: 400, W: 200, H: 20},
		{X: 300, Y: 250, W: 200, H: 20},
		{X: 100, Y: 100, W: 200, H: 20},
		{X: 500, Y: 100, W: 200, H: 20},
	}
}
