package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
)

type Config struct {
	HTTPPort        string        `name:"addr" help:"HTTP listen address." default:":8080" env:"TASKS_ADDR"`
	DBDriver        string        `name:"db-driver" help:"Backing store (${enum})." enum:"sqlite,postgres,memory" default:"sqlite" env:"TASKS_DB_DRIVER"`
	DBDSN           string        `name:"db-dsn" help:"Database file (sqlite) or connection string (postgres)." default:"tasks.db" env:"TASKS_DB_DSN"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" help:"Grace period for in-flight requests on shutdown." default:"10s" env:"TASKS_SHUTDOWN_TIMEOUT"`
	LogLevel        string        `name:"log-level" help:"Minimum log level (${enum})." enum:"debug,info,warn,error" default:"info" env:"TASKS_LOG_LEVEL"`
	LogFormat       string        `name:"log-format" help:"Log output format (${enum})." enum:"json,text" default:"json" env:"TASKS_LOG_FORMAT"`
}

// Parse reads flags from args, falling back to TASKS_* environment variables
// and then to the defaults.
func Parse(args []string, options ...kong.Option) (Config, error) {
	var cfg Config

	options = append([]kong.Option{
		kong.Name("task-tracker"),
		kong.Description("Task tracking HTTP service."),
	}, options...)

	parser, err := kong.New(&cfg, options...)
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}

	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
