package entity

// Kind discriminates what an entity is and which of its fields are meaningful.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
	KindBoss
	KindProjectile
	KindSnowball
	KindParticle
	KindPlatform
	KindWall
	KindPowerUp
	kindCount
)

var kindNames = [...]string{
	KindPlayer:     "player",
	KindEnemy:      "enemy",
	KindBoss:       "boss",
	KindProjectile: "projectile",
	KindSnowball:   "snowball",
	KindParticle:   "particle",
	KindPlatform:   "platform",
	KindWall:       "wall",
	KindPowerUp:    "powerup",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Solid reports whether the kind is part of the static map.
func (k Kind) Solid() bool {
	return k == KindPlatform || k == KindWall
}

// EnemyState is the minion sub-state.
type EnemyState int

const (
	EnemyWalking EnemyState = iota
	EnemyStunned
	EnemyFrozen
)

func (s EnemyState) String() string {
	switch s {
	case EnemyWalking:
		return "walking"
	case EnemyStunned:
		return "stunned"
	case EnemyFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// BossState is the boss encounter state machine.
type BossState int

const (
	BossSpawn BossState = iota
	BossPhase1
	BossPhase2
	BossPhase3
	BossStunned
	BossEnraged
	BossDefeated
)

func (s BossState) String() string {
	switch s {
	case BossSpawn:
		return "spawn"
	case BossPhase1:
		return "phase1"
	case BossPhase2:
		return "phase2"
	case BossPhase3:
		return "phase3"
	case BossStunned:
		return "stunned"
	case BossEnraged:
		return "enraged"
	case BossDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}

// Hostile reports whether touching the boss hurts in this state.
func (s BossState) Hostile() bool {
	return s != BossStunned && s != BossDefeated
}

// PowerUpKind is the pickup variant.
type PowerUpKind int

const (
	PowerUpSpeed PowerUpKind = iota
	PowerUpRapid
	PowerUpRange
)

// Glyph returns the character used to draw the pickup.
func (p PowerUpKind) Glyph() rune {
	switch p {
	case PowerUpSpeed:
		return 'S'
	case PowerUpRapid:
		return 'R'
	case PowerUpRange:
		return 'G'
	default:
		return '?'
	}
}

func (p PowerUpKind) String() string {
	switch p {
	case PowerUpSpeed:
		return "speed"
	case PowerUpRapid:
		return "rapid"
	case PowerUpRange:
		return "range"
	default:
		return "unknown"
	}
}

// Palette used when entities are drawn to images.
const (
	ColorPlayer1      = "#60a5fa"
	ColorPlayer2      = "#f472b6"
	ColorGhost        = "#94a3b8"
	ColorEnemy        = "#ef4444"
	ColorEnemyStunned = "#93c5fd"
	ColorSnowball     = "#f8fafc"
	ColorBoss         = "#1e3a8a"
	ColorBossIce      = "#bae6fd"
	ColorBossEnraged  = "#dc2626"
	ColorProjectile   = "#e0f2fe"
	ColorPlatform     = "#475569"
	ColorWall         = "#334155"
	ColorSpeed        = "#facc15"
	ColorRapid        = "#f97316"
	ColorRange        = "#22c55e"
)

// PowerUpColor returns the display colour of a pickup.
func PowerUpColor(p PowerUpKind) string {
	switch p {
	case PowerUpRapid:
		return ColorRapid
	case PowerUpRange:
		return ColorRange
	default:
		return ColorSpeed
	}
}
