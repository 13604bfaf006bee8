package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode               string        `mapstructure:"mode"`
	Port               int           `mapstructure:"port"`
	StaticPath         string        `mapstructure:"static_path"`
	ReadLimit          int64         `mapstructure:"read_limit"`
	PingPeriod         time.Duration `mapstructure:"ping_period"`
	PongWait           time.Duration `mapstructure:"pong_wait"`
	SendBuffer         int           `mapstructure:"send_buffer"`
	Secret             string        `mapstructure:"secret"`
	DatabasePath       string        `mapstructure:"database_path"`
	LogLevel           string        `mapstructure:"log_level"`
	RoomCreateLimit    int           `mapstructure:"room_create_limit"`
	RoomCreateInterval time.Duration `mapstructure:"room_create_interval"`

	Client ClientConfig `mapstructure:"client"`
}

// ClientConfig drives the headless participant in cmd/client.
type ClientConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	RoomID         string        `mapstructure:"room_id"`
	CreateRoom     bool          `mapstructure:"create_room"`
	Name           string        `mapstructure:"name"`
	Photo          string        `mapstructure:"photo"`
	AutoAdmit      bool          `mapstructure:"auto_admit"`
	ICEServers     []string      `mapstructure:"ice_servers"`
	AdmitDelay     time.Duration `mapstructure:"admit_delay"`
	WaitingTimeout time.Duration `mapstructure:"waiting_timeout"`
	ReloadDelay    time.Duration `mapstructure:"reload_delay"`
	// Synthetic capture devices; a false value behaves like a denied permission.
	Microphone bool `mapstructure:"microphone"`
	Camera     bool `mapstructure:"camera"`
	Display    bool `mapstructure:"display"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("HUDDLE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "huddle-dev-secret")
	v.SetDefault("database_path", "huddle.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("room_create_limit", 5)
	v.SetDefault("room_create_interval", "1m")

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.name", "guest")
	v.SetDefault("client.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("client.admit_delay", "1s")
	v.SetDefault("client.waiting_timeout", "3s")
	v.SetDefault("client.reload_delay", "3s")
	v.SetDefault("client.microphone", true)
	v.SetDefault("client.camera", true)
	v.SetDefault("client.display", false)
}
