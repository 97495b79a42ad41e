package config

// SimulationConfig controls the tick engine
type SimulationConfig struct {
	// Identifies checkpoints and logged events; generated when empty
	RunID string `mapstructure:"run_id"`

	// Simulated millisols advanced per tick
	TickMillisols float64 `mapstructure:"tick_millisols" validate:"gt=0,lte=1000"`

	// Daemon pacing; 0 runs as fast as possible
	TicksPerSecond float64 `mapstructure:"ticks_per_second" validate:"gte=0"`

	// Burst of ticks the pacer allows after a stall
	Burst int `mapstructure:"burst" validate:"min=1"`

	// Seed for the random source; the same seed and scenario replay identically
	Seed int64 `mapstructure:"seed"`

	// Scenario YAML loaded at startup
	ScenarioPath string `mapstructure:"scenario_path"`

	// Tick settlements concurrently. Breaks replay determinism.
	ParallelSettlements bool `mapstructure:"parallel_settlements"`
	MaxParallel         int  `mapstructure:"max_parallel" validate:"min=1"`

	// Ticks between checkpoints; 0 disables checkpointing
	CheckpointInterval int `mapstructure:"checkpoint_interval" validate:"gte=0"`

	// Phase transitions a task may chain inside one tick
	MaxPhaseChain int `mapstructure:"max_phase_chain" validate:"min=1"`

	// Per-producer event buffer between drains
	EventQueueCapacity int `mapstructure:"event_queue_capacity" validate:"min=1"`
}

// GovernanceConfig holds settlement organisation thresholds
type GovernanceConfig struct {
	// Population at which the chain of command grows to seven divisions
	CommandThreshold int `mapstructure:"command_threshold" validate:"min=1"`

	// Population at which settlements move to three shifts
	ThreeShiftThreshold int `mapstructure:"three_shift_threshold" validate:"min=1"`

	// Share of immigrants generated male
	ImmigrantMaleRatio float64 `mapstructure:"immigrant_male_ratio" validate:"gte=0,lte=1"`
}

// MissionConfig holds mission tuning
type MissionConfig struct {
	LoadingChanceMin float64 `mapstructure:"loading_chance_min" validate:"gt=0,lte=1"`
	LoadingChanceMax float64 `mapstructure:"loading_chance_max" validate:"gtefield=LoadingChanceMin,lte=1"`

	// Multiplier on the estimated trip consumables
	ConsumableMargin float64 `mapstructure:"consumable_margin" validate:"gte=1"`

	MinMembers int `mapstructure:"min_members" validate:"min=1"`
	MaxMembers int `mapstructure:"max_members" validate:"gtefield=MinMembers"`
}

// TasksConfig holds task tuning
type TasksConfig struct {
	AccidentBaseChance float64 `mapstructure:"accident_base_chance" validate:"gte=0,lte=1"`
	WorkPerMeal        float64 `mapstructure:"work_per_meal" validate:"gt=0"`
	CookSessionWork    float64 `mapstructure:"cook_session_work" validate:"gt=0"`
	RelaxDuration      float64 `mapstructure:"relax_duration" validate:"gt=0"`
	WorkoutDuration    float64 `mapstructure:"workout_duration" validate:"gt=0"`
	ExperiencePerWork  float64 `mapstructure:"experience_per_work" validate:"gte=0"`
	FoundationWork     float64 `mapstructure:"foundation_work" validate:"gt=0"`
}
