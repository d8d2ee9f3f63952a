package ops

import (
	"net"
	"os"
	"strconv"

	"binance-di/pkg/exception"

	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
)

const (
	defaultRedisHost = "localhost"
	defaultRedisPort = 31111
)

// Env holds the settings read from the environment file.
type Env struct {
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
}

// RedisAddr returns host:port of the stream store.
func (e Env) RedisAddr() string {
	return net.JoinHostPort(e.RedisHost, strconv.Itoa(e.RedisPort))
}

// LoadEnv reads path, which must exist. Variables already set in the process
// environment take precedence over the file.
func LoadEnv(path string) (Env, error) {
	if _, err := os.Stat(path); err != nil {
		return Env{}, errors.Wrapf(exception.ErrEnvFileMissing, "environment file %q", path)
	}
	file, err := godotenv.Read(path)
	if err != nil {
		return Env{}, errors.Wrap(err, "read environment file").With("file", path)
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}

	env := Env{
		RedisHost:     lookup("REDIS_HOST"),
		RedisPort:     defaultRedisPort,
		RedisPassword: lookup("REDIS_PASSWORD"),
	}
	if env.RedisHost == "" {
		env.RedisHost = defaultRedisHost
	}
	if v := lookup("REDIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return Env{}, errors.Wrapf(exception.ErrInvalidConfig, "REDIS_PORT %q", v)
		}
		env.RedisPort = port
	}
	if v := lookup("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return Env{}, errors.Wrapf(exception.ErrInvalidConfig, "REDIS_DB %q", v)
		}
		env.RedisDB = db
	}
	return env, nil
}
