package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=5000"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	JWTSecret         string        `env:"JWT_SECRET"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`

	// Real-time knobs. PongWait is the idle timeout for a silent client;
	// SendBufferSize bounds each connection's outbound queue.
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=64"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE,default=256"`
	PongWait        time.Duration `env:"PONG_WAIT,default=60s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096"`

	HistoryLimit    int           `env:"HISTORY_LIMIT,default=50"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	DebugPort       int           `env:"DEBUG_PORT,default=8081"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
