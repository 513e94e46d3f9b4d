// Package config provides YAML-based game configuration loading and
// difficulty management for the snow arena.
package config

import "time"

// GameConfig contains every tunable of the simulation.
type GameConfig struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Player     PlayerConfig     `yaml:"player"`
	Gameplay   GameplayConfig   `yaml:"gameplay"`
	Boss       BossConfig       `yaml:"boss"`
	Loop       LoopConfig       `yaml:"loop"`
	Director   DirectorConfig   `yaml:"director"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// WorldConfig defines the arena size in world units.
type WorldConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	FloorHeight   float64 `yaml:"floor_height"`
	WallThickness float64 `yaml:"wall_thickness"`
}

// FloorY returns the top of the floor platform.
func (w WorldConfig) FloorY() float64 {
	return w.Height - w.FloorHeight
}

// PhysicsConfig defines integration parameters, all per fixed step.
type PhysicsConfig struct {
	Gravity           float64 `yaml:"gravity"`
	TerminalVelocity  float64 `yaml:"terminal_velocity"`
	MaxSpeed          float64 `yaml:"max_speed"`
	MoveSpeed         float64 `yaml:"move_speed"` // enemy walk speed
	Friction          float64 `yaml:"friction"`
	JumpForce         float64 `yaml:"jump_force"`
	ProjectileSpeed   float64 `yaml:"projectile_speed"`
	SnowballRollSpeed float64 `yaml:"snowball_roll_speed"`
	PlatformTolerance float64 `yaml:"platform_tolerance"`
}

// PlayerConfig defines the player body.
type PlayerConfig struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	Lives             int     `yaml:"lives"`
	InvulnerabilityMs int     `yaml:"invulnerability_ms"`
}

// Invulnerability returns the post-damage grace window.
func (p PlayerConfig) Invulnerability() time.Duration {
	return time.Duration(p.InvulnerabilityMs) * time.Millisecond
}

// GameplayConfig defines combat, spawning and wave pacing rules.
type GameplayConfig struct {
	EnemyWidth        float64     `yaml:"enemy_width"`
	EnemyHeight       float64     `yaml:"enemy_height"`
	ProjectileSize    float64     `yaml:"projectile_size"`
	PowerUpSize       float64     `yaml:"powerup_size"`
	FreezePerShot     float64     `yaml:"freeze_per_shot"`
	BossFreezePerShot float64     `yaml:"boss_freeze_per_shot"`
	FreezeDecay       float64     `yaml:"freeze_decay"`
	SpawnSafeRadius   float64     `yaml:"spawn_safe_radius"`
	SpawnMargin       float64     `yaml:"spawn_margin"`
	MaxProjectiles    int         `yaml:"max_projectiles"`
	BaseShotCooldown  float64     `yaml:"base_shot_cooldown"`
	MinShotCooldown   float64     `yaml:"min_shot_cooldown"`
	ProjectileTTL     int         `yaml:"projectile_ttl"`
	LevelCompleteMs   int         `yaml:"level_complete_ms"`
	BossWaveEvery     int         `yaml:"boss_wave_every"`
	ProjectilePool    int         `yaml:"projectile_pool"`
	ParticlePool      int         `yaml:"particle_pool"`
	Score             ScoreConfig `yaml:"score"`
	PowerUpBonus      BonusConfig `yaml:"powerup_bonus"`
}

// LevelCompleteGrace returns the pause between clearing a wave and the next one.
func (g GameplayConfig) LevelCompleteGrace() time.Duration {
	return time.Duration(g.LevelCompleteMs) * time.Millisecond
}

// ScoreConfig defines points per event.
type ScoreConfig struct {
	Kick         int `yaml:"kick"`
	BossKick     int `yaml:"boss_kick"`
	SnowballKill int `yaml:"snowball_kill"`
	PowerUp      int `yaml:"powerup"`
}

// BonusConfig defines multiplier increments granted by power-ups.
type BonusConfig struct {
	Speed float64 `yaml:"speed"`
	Rapid float64 `yaml:"rapid"`
	Range float64 `yaml:"range"`
}

// BossConfig defines the boss encounter.
type BossConfig struct {
	Width            float64 `yaml:"width"`
	Height           float64 `yaml:"height"`
	Health           int     `yaml:"health"`
	KickDamage       int     `yaml:"kick_damage"`
	ChipDamage       int     `yaml:"chip_damage"`
	Speed            float64 `yaml:"speed"`
	EnragedSpeedMult float64 `yaml:"enraged_speed_mult"`
	MinionInterval   int     `yaml:"minion_interval"` // frames between minions in phase 1
	LeapInterval     int     `yaml:"leap_interval"`   // frames between leaps in phase 2
	StormInterval    int     `yaml:"storm_interval"`  // frames between minions in phase 3
	MaxMinions       int     `yaml:"max_minions"`
	Phase2Threshold  float64 `yaml:"phase2_threshold"` // fraction of max health
	Phase3Threshold  float64 `yaml:"phase3_threshold"` // fraction of max health, coop only
	WindForce        float64 `yaml:"wind_force"`
	KickBounce       float64 `yaml:"kick_bounce"`
}

// LoopConfig defines the fixed-step scheduler.
type LoopConfig struct {
	TickRate   int `yaml:"tick_rate"`
	MaxFrameMs int `yaml:"max_frame_ms"`
}

// StepDuration returns the length of one fixed step.
func (l LoopConfig) StepDuration() time.Duration {
	rate := l.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// MaxFrameTime returns the cap applied to the accumulator per frame.
func (l LoopConfig) MaxFrameTime() time.Duration {
	return time.Duration(l.MaxFrameMs) * time.Millisecond
}

// DirectorConfig defines how wave configurations are requested.
type DirectorConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Endpoint          string  `yaml:"endpoint"`
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutMs         int     `yaml:"timeout_ms"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Timeout returns the race deadline for one wave request.
func (d DirectorConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMs) * time.Millisecond
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases over a run.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "wave", "score", or "none"
	MaxAt int    `yaml:"max_at"` // Wave/score at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // Multiplier added to enemy walk speed at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}
