package config

import "maps"

const redacted = "********"

// secretKeys are backend option keys whose values are never printed.
var secretKeys = map[string]bool{
	"uri":               true,
	"url":               true,
	"secret_access_key": true,
	"signing_key":       true,
}

// Redacted returns a copy of cfg safe to print: the API token and the
// secret backend options are masked. cfg is not modified.
func Redacted(cfg *Config) *Config {
	out := *cfg
	if out.API.AuthToken != "" {
		out.API.AuthToken = redacted
	}

	out.Records.Badger = redactMap(cfg.Records.Badger)
	out.Records.Mongo = redactMap(cfg.Records.Mongo)
	out.Records.Postgres = redactMap(cfg.Records.Postgres)
	out.Objects.Memory = redactMap(cfg.Objects.Memory)
	out.Objects.Filesystem = redactMap(cfg.Objects.Filesystem)
	out.Objects.S3 = redactMap(cfg.Objects.S3)
	return &out
}

func redactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		if secretKeys[k] && !isBlank(v) {
			out[k] = redacted
		}
	}
	return out
}
