package config

import (
	_ "embed"
)

//go:embed defaults/snowbros.yaml
var defaultGameYAML []byte

// DefaultGameConfig returns the built-in configuration.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		World: WorldConfig{
			Width:         800,
			Height:        600,
			FloorHeight:   40,
			WallThickness: 32,
		},
		Physics: PhysicsConfig{
			Gravity:           0.5,
			TerminalVelocity:  12,
			MaxSpeed:          4,
			MoveSpeed:         1.5,
			Friction:          0.8,
			JumpForce:         -11,
			ProjectileSpeed:   8,
			SnowballRollSpeed: 8,
			PlatformTolerance: 14,
		},
		Player: PlayerConfig{
			Width:             32,
			Height:            32,
			Lives:             3,
			InvulnerabilityMs: 2000,
		},
		Gameplay: GameplayConfig{
			EnemyWidth:        32,
			EnemyHeight:       32,
			ProjectileSize:    16,
			PowerUpSize:       24,
			FreezePerShot:     25,
			BossFreezePerShot: 20,
			FreezeDecay:       0.2,
			SpawnSafeRadius:   150,
			SpawnMargin:       75,
			MaxProjectiles:    5,
			BaseShotCooldown:  12,
			MinShotCooldown:   4,
			ProjectileTTL:     60,
			LevelCompleteMs:   2000,
			BossWaveEvery:     5,
			ProjectilePool:    20,
			ParticlePool:      100,
			Score: ScoreConfig{
				Kick:         500,
				BossKick:     5000,
				SnowballKill: 1000,
				PowerUp:      200,
			},
			PowerUpBonus: BonusConfig{
				Speed: 0.2,
				Rapid: 0.3,
				Range: 0.5,
			},
		},
		Boss: BossConfig{
			Width:            64,
			Height:           64,
			Health:           100,
			KickDamage:       34,
			ChipDamage:       5,
			Speed:            1.5,
			EnragedSpeedMult: 2,
			MinionInterval:   180,
			LeapInterval:     150,
			StormInterval:    60,
			MaxMinions:       5,
			Phase2Threshold:  0.5,
			Phase3Threshold:  0.25,
			WindForce:        0.6,
			KickBounce:       -10,
		},
		Loop: LoopConfig{
			TickRate:   60,
			MaxFrameMs: 200,
		},
		Director: DirectorConfig{
			Enabled:           false,
			Endpoint:          "http://127.0.0.1:8787/api/director/generate",
			Model:             "wave-director",
			APIKeyEnv:         "SNOWBROS_DIRECTOR_API_KEY",
			TimeoutMs:         800,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "wave",
				MaxAt: 20,
			},
			Scaling: ScalingConfig{
				SpeedMultiplier: 1.0,
			},
		},
	}
}
