package main

import (
	"fmt"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"api-url":      "api.base_url",
	"timeout":      "api.timeout",
	"store":        "store.backend",
	"store-dir":    "store.dir",
	"store-path":   "store.path",
	"redis-addr":   "store.redis_addr",
	"redis-prefix": "store.redis_prefix",
	"profile-ttl":  "cache.profile_ttl",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"audit":        "audit.enabled",
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := goSession.DefaultConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout", def.API.Timeout)
	v.SetDefault("store.backend", goSession.StoreFile)
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", def.Store.RedisPrefix)
	v.SetDefault("cache.profile_ttl", def.Cache.ProfileTTL)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("audit.enabled", false)

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func sessionConfig(v *viper.Viper) goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.API.BaseURL = v.GetString("api.base_url")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.Store.Backend = v.GetString("store.backend")
	cfg.Store.Dir = v.GetString("store.dir")
	cfg.Store.Path = v.GetString("store.path")
	cfg.Store.RedisPrefix = v.GetString("store.redis_prefix")
	cfg.Cache.ProfileTTL = v.GetDuration("cache.profile_ttl")
	cfg.Audit.Enabled = v.GetBool("audit.enabled")
	return cfg
}
