package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/usecases"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Log        LogConfig        `mapstructure:"log"`
	Geocoder   GeocoderConfig   `mapstructure:"geocoder"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Search     SearchConfig     `mapstructure:"search"`
	Animation  AnimationConfig  `mapstructure:"animation"`
	Light      LightConfig      `mapstructure:"light"`
	Map        MapConfig        `mapstructure:"map"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	RateLimit      int `mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GeocoderConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	UserAgent    string   `mapstructure:"user_agent"`
	CountryCodes []string `mapstructure:"country_codes"`
	Limit        int      `mapstructure:"limit"`
	Timeout      int      `mapstructure:"timeout"`
	CacheTTL     int      `mapstructure:"cache_ttl"`
}

// DirectionsConfig selects the route source. An empty BaseURL routes
// in-process over the pgRouting graph.
type DirectionsConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"`
	CacheTTL    int     `mapstructure:"cache_ttl"`
	MaxSpanM    float64 `mapstructure:"max_span_m"`
	SnapRadiusM float64 `mapstructure:"snap_radius_m"`
}

type TierConfig struct {
	Name string    `mapstructure:"name"`
	BBox []float64 `mapstructure:"bbox"`
}

type SearchConfig struct {
	NoResultsBelow  int          `mapstructure:"no_results_below"`
	FewResultsBelow int          `mapstructure:"few_results_below"`
	Tiers           []TierConfig `mapstructure:"tiers"`
}

type AnimationConfig struct {
	OverviewHoldMS   int     `mapstructure:"overview_hold_ms"`
	MidpointHoldMS   int     `mapstructure:"midpoint_hold_ms"`
	RotationPeriodMS int     `mapstructure:"rotation_period_ms"`
	RotationStep     float64 `mapstructure:"rotation_step"`
	ReturnDelayMS    int     `mapstructure:"return_delay_ms"`
	FlyDurationMS    int     `mapstructure:"fly_duration_ms"`
	ZoomDamping      float64 `mapstructure:"zoom_damping"`
	MidpointPitch    float64 `mapstructure:"midpoint_pitch"`
	FitPadding       int     `mapstructure:"fit_padding"`
}

type LightConfig struct {
	Dawn     int    `mapstructure:"dawn"`
	Day      int    `mapstructure:"day"`
	Dusk     int    `mapstructure:"dusk"`
	Night    int    `mapstructure:"night"`
	Tick     string `mapstructure:"tick"`
	Timezone string `mapstructure:"timezone"`
}

type MapConfig struct {
	CenterLon     float64 `mapstructure:"center_lon"`
	CenterLat     float64 `mapstructure:"center_lat"`
	Zoom          float64 `mapstructure:"zoom"`
	Pitch         float64 `mapstructure:"pitch"`
	PanDurationMS int     `mapstructure:"pan_duration_ms"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: FLYOVER_DATABASE_HOST → database.host
	v.SetEnvPrefix("FLYOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "flyover")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "routing")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "flyover:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "flyover/1.0")
	v.SetDefault("geocoder.country_codes", []string{"in"})
	v.SetDefault("geocoder.limit", 5)
	v.SetDefault("geocoder.timeout", 10)
	v.SetDefault("geocoder.cache_ttl", 3600)

	v.SetDefault("directions.base_url", "")
	v.SetDefault("directions.timeout", 10)
	v.SetDefault("directions.cache_ttl", 600)
	v.SetDefault("directions.max_span_m", 150000)
	v.SetDefault("directions.snap_radius_m", 1000)

	policy := usecases.DefaultWidenPolicy()
	v.SetDefault("search.no_results_below", policy.NoResultsBelow)
	v.SetDefault("search.few_results_below", policy.FewResultsBelow)
	var tiers []map[string]any
	for _, t := range domain.DefaultSearchTiers() {
		tier := map[string]any{"name": t.Name}
		if t.Scope != nil {
			tier["bbox"] = t.Scope.Slice()
		}
		tiers = append(tiers, tier)
	}
	v.SetDefault("search.tiers", tiers)

	anim := usecases.DefaultAnimationConfig()
	v.SetDefault("animation.overview_hold_ms", anim.OverviewHold.Milliseconds())
	v.SetDefault("animation.midpoint_hold_ms", anim.MidpointHold.Milliseconds())
	v.SetDefault("animation.rotation_period_ms", anim.RotationPeriod.Milliseconds())
	v.SetDefault("animation.rotation_step", anim.RotationStep)
	v.SetDefault("animation.return_delay_ms", anim.ReturnDelay.Milliseconds())
	v.SetDefault("animation.fly_duration_ms", anim.FlyDuration.Milliseconds())
	v.SetDefault("animation.zoom_damping", anim.ZoomDamping)
	v.SetDefault("animation.midpoint_pitch", anim.MidpointPitch)
	v.SetDefault("animation.fit_padding", anim.FitPadding)

	light := usecases.DefaultLightBoundaries()
	v.SetDefault("light.dawn", light.Dawn)
	v.SetDefault("light.day", light.Day)
	v.SetDefault("light.dusk", light.Dusk)
	v.SetDefault("light.night", light.Night)
	v.SetDefault("light.tick", usecases.DefaultLightTick)
	v.SetDefault("light.timezone", "Asia/Kolkata")

	v.SetDefault("map.center_lon", 77.5946)
	v.SetDefault("map.center_lat", 12.9716)
	v.SetDefault("map.zoom", 17)
	v.SetDefault("map.pitch", 60)
	v.SetDefault("map.pan_duration_ms", 2000)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder.base_url is required")
	}
	if !(domain.GeoPoint{Lon: c.Map.CenterLon, Lat: c.Map.CenterLat}).Valid() {
		errs = append(errs, fmt.Sprintf("map center %v,%v is out of range", c.Map.CenterLon, c.Map.CenterLat))
	}

	// The domain validators own the rules for the session settings.
	if _, err := c.Session(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SearchTiers converts the configured tiers.
func (c *Config) SearchTiers() (domain.SearchTiers, error) {
	tiers := make(domain.SearchTiers, 0, len(c.Search.Tiers))
	for i, t := range c.Search.Tiers {
		tier := domain.SearchTier{Name: t.Name}
		if len(t.BBox) > 0 {
			box, err := domain.NewBoundingBox(t.BBox)
			if err != nil {
				return nil, fmt.Errorf("search.tiers[%d]: %w", i, err)
			}
			tier.Scope = &box
		}
		tiers = append(tiers, tier)
	}
	if err := tiers.Validate(); err != nil {
		return nil, fmt.Errorf("search.tiers: %w", err)
	}
	return tiers, nil
}

// Session builds the per-connection map session settings.
func (c *Config) Session() (usecases.SessionConfig, error) {
	cfg := usecases.DefaultSessionConfig()

	tiers, err := c.SearchTiers()
	if err != nil {
		return cfg, err
	}
	cfg.Tiers = tiers

	cfg.Policy = usecases.WidenPolicy{
		NoResultsBelow:  c.Search.NoResultsBelow,
		FewResultsBelow: c.Search.FewResultsBelow,
	}
	if err := cfg.Policy.Validate(); err != nil {
		return cfg, err
	}

	a := c.Animation
	cfg.Animation.OverviewHold = ms(a.OverviewHoldMS)
	cfg.Animation.MidpointHold = ms(a.MidpointHoldMS)
	cfg.Animation.RotationPeriod = ms(a.RotationPeriodMS)
	cfg.Animation.RotationStep = a.RotationStep
	cfg.Animation.ReturnDelay = ms(a.ReturnDelayMS)
	cfg.Animation.FlyDuration = ms(a.FlyDurationMS)
	cfg.Animation.ZoomDamping = a.ZoomDamping
	cfg.Animation.MidpointPitch = a.MidpointPitch
	cfg.Animation.FitPadding = a.FitPadding
	cfg.Animation.HomeZoom = c.Map.Zoom
	cfg.Animation.HomePitch = c.Map.Pitch
	if err := cfg.Animation.Validate(); err != nil {
		return cfg, err
	}
	cfg.Controls.FitPadding = a.FitPadding

	cfg.Light = usecases.LightBoundaries{Dawn: c.Light.Dawn, Day: c.Light.Day, Dusk: c.Light.Dusk, Night: c.Light.Night}
	if err := cfg.Light.Validate(); err != nil {
		return cfg, err
	}
	if c.Light.Tick != "" {
		cfg.LightTick = c.Light.Tick
	}
	if c.Light.Timezone != "" {
		loc, err := time.LoadLocation(c.Light.Timezone)
		if err != nil {
			return cfg, fmt.Errorf("light.timezone: %w", err)
		}
		cfg.Location = loc
	}

	cfg.Home = domain.Camera{
		Center: domain.GeoPoint{Lon: c.Map.CenterLon, Lat: c.Map.CenterLat},
		Zoom:   c.Map.Zoom,
		Pitch:  c.Map.Pitch,
	}
	cfg.PanDuration = ms(c.Map.PanDurationMS)
	return cfg, nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
