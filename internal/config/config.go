package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	DB         DB         `yaml:"db"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Capture    Capture    `yaml:"capture"`
	Snapshots  Snapshots  `yaml:"snapshots"`
	Influx     Influx     `yaml:"influx"`
}

type DB struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"DB_USERNAME" env-default:"postgres"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-default:"camera_tracking"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Path     string `yaml:"path" env:"DB_PATH" env-default:"./storage/tracking.db"`
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// CycleTimeout bounds POST /cycles, which runs a capture cycle synchronously.
	CycleTimeout time.Duration `yaml:"cycle_timeout" env-default:"45s"`
}

type Capture struct {
	MaxWorkers     int           `yaml:"max_workers" env:"MAX_CAMERA_WORKERS" env-default:"4"`
	CycleTimeout   time.Duration `yaml:"cycle_timeout" env:"CYCLE_TIMEOUT" env-default:"30s"`
	Tick           time.Duration `yaml:"tick" env-default:"1m"`
	BufferSize     int           `yaml:"buffer_size" env:"RTSP_BUFFER_SIZE" env-default:"1"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" env-default:"3s"`
	DedupThreshold int           `yaml:"dedup_threshold" env-default:"100"`
}

type Snapshots struct {
	Enabled     bool   `yaml:"enabled" env:"SNAPSHOTS_ENABLED" env-default:"false"`
	Driver      string `yaml:"driver" env:"SNAPSHOTS_DRIVER" env-default:"fs"`
	Dir         string `yaml:"dir" env:"SNAPSHOTS_DIR" env-default:"./captured_frames"`
	Bucket      string `yaml:"bucket" env:"SNAPSHOTS_S3_BUCKET"`
	Region      string `yaml:"region" env:"SNAPSHOTS_S3_REGION" env-default:"us-east-1"`
	Endpoint    string `yaml:"endpoint" env:"SNAPSHOTS_S3_ENDPOINT"`
	PathStyle   bool   `yaml:"path_style" env:"SNAPSHOTS_S3_PATH_STYLE" env-default:"false"`
	JPEGQuality int    `yaml:"jpeg_quality" env-default:"90"`
}

type Influx struct {
	Enabled bool   `yaml:"enabled" env:"INFLUX_ENABLED" env-default:"false"`
	URL     string `yaml:"url" env:"INFLUX_URL" env-default:"http://localhost:8086"`
	Token   string `yaml:"-" env:"INFLUX_TOKEN"`
	Org     string `yaml:"org" env:"INFLUX_ORG" env-default:"camera-tracking"`
	Bucket  string `yaml:"bucket" env:"INFLUX_BUCKET" env-default:"measurements"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
func fetchConfigPath() string {
	var res string

	if f := flag.Lookup("config"); f != nil {
		res = f.Value.String()
	} else {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
