package config

import "time"

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// WebserverConfig contains the HTTP listener and page settings.
type WebserverConfig struct {
	Scheme           string                 `yaml:"scheme"`
	Host             string                 `yaml:"host"`
	Port             int                    `yaml:"port"`
	URL              string                 `yaml:"url"`
	Index            string                 `yaml:"index"`
	CustomizeTimeout int                    `yaml:"customize_timeout"`
	SessionTTL       int                    `yaml:"session_ttl"`
	Folders          WebserverFoldersConfig `yaml:"folders"`
}

// WebserverFoldersConfig lists template and asset folders. Entries may
// contain $HOMESTAR_INSTALL.
type WebserverFoldersConfig struct {
	Static  []string `yaml:"static"`
	Dynamic []string `yaml:"dynamic"`
}

// MQTTConfig contains message bus connection settings.
type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Websocket int    `yaml:"websocket"`
	TLS       bool   `yaml:"tls"`
	ClientID  string `yaml:"client_id"`
	QoS       int    `yaml:"qos"`
	Username  string `yaml:"-"`
	Password  string `yaml:"-"`
}

// InfluxDBConfig contains render telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"-"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Logging returns the logging section.
func (t Tree) Logging() LoggingConfig {
	var cfg LoggingConfig
	_ = t.Decode("logging", &cfg) //nolint:errcheck // zero values fall back to defaults in logging.New
	return cfg
}

// Webserver returns the webserver section.
func (t Tree) Webserver() (WebserverConfig, error) {
	var cfg WebserverConfig
	if err := t.Decode("webserver", &cfg); err != nil {
		return WebserverConfig{}, err
	}
	return cfg, nil
}

// MQTT returns the mqttd section with credentials from keys/mqttd.
func (t Tree) MQTT() (MQTTConfig, error) {
	var cfg MQTTConfig
	if err := t.Decode("mqttd", &cfg); err != nil {
		return MQTTConfig{}, err
	}
	cfg.Username = t.String("keys/mqttd/username")
	cfg.Password = t.String("keys/mqttd/password")
	if cfg.ClientID == "" {
		cfg.ClientID = "homestar-" + t.String("name")
	}
	return cfg, nil
}

// InfluxDB returns the influxdb section with its token from keys/influxdb.
func (t Tree) InfluxDB() (InfluxDBConfig, error) {
	var cfg InfluxDBConfig
	if err := t.Decode("influxdb", &cfg); err != nil {
		return InfluxDBConfig{}, err
	}
	cfg.Token = t.String("keys/influxdb/token")
	return cfg, nil
}

// CustomizeTimeoutDuration returns the per-request budget of a page customize step.
func (c WebserverConfig) CustomizeTimeoutDuration() time.Duration {
	if c.CustomizeTimeout <= 0 {
		return 10 * time.Second //nolint:mnd // default budget
	}
	return time.Duration(c.CustomizeTimeout) * time.Second
}

// SessionTTLDuration returns how long a session cookie stays valid.
func (c WebserverConfig) SessionTTLDuration() time.Duration {
	if c.SessionTTL <= 0 {
		return 7 * 24 * time.Hour //nolint:mnd // one week
	}
	return time.Duration(c.SessionTTL) * time.Minute
}
