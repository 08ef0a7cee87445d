package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Version       int                  `mapstructure:"version"`
	Logging       LoggingConfig        `mapstructure:"logging"`
	Storage       []StorageConfig      `mapstructure:"storage"`
	Truncate      []TruncateJobConfig  `mapstructure:"truncate"`
	Notifications []NotificationConfig `mapstructure:"notifications"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	Name string    `mapstructure:"name"`
	Type string    `mapstructure:"type"`
	S3   *S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Prefix       string `mapstructure:"prefix"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
}

// TruncateJobConfig names a prefix to wipe. BatchSize 0 means the S3 limit.
type TruncateJobConfig struct {
	Name      string `mapstructure:"name"`
	Storage   string `mapstructure:"storage"`
	Prefix    string `mapstructure:"prefix"`
	BatchSize int    `mapstructure:"batch_size"`
}

type NotificationConfig struct {
	Type   string              `mapstructure:"type"`
	On     []string            `mapstructure:"on"`
	Config NotificationDetails `mapstructure:"config"`
}

type NotificationDetails struct {
	SMTPHost string            `mapstructure:"smtp_host"`
	SMTPPort int               `mapstructure:"smtp_port"`
	From     string            `mapstructure:"from"`
	To       string            `mapstructure:"to"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig reads a yaml or toml file (picked by extension) into a Config and
// expands $VAR references.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ModifyConfig(&cfg)

	return &cfg, nil
}

func ModifyConfig(cfg *Config) {
	cfg.Logging.Level = os.ExpandEnv(cfg.Logging.Level)

	for i := range cfg.Storage {
		st := &cfg.Storage[i]
		st.Name = os.ExpandEnv(st.Name)
		st.Type = os.ExpandEnv(st.Type)
		if st.S3 != nil {
			st.S3.Bucket = os.ExpandEnv(st.S3.Bucket)
			st.S3.Region = os.ExpandEnv(st.S3.Region)
			st.S3.Prefix = os.ExpandEnv(st.S3.Prefix)
			st.S3.Endpoint = os.ExpandEnv(st.S3.Endpoint)
			st.S3.AccessKey = os.ExpandEnv(st.S3.AccessKey)
			st.S3.SecretKey = os.ExpandEnv(st.S3.SecretKey)
		}
	}

	for i := range cfg.Truncate {
		job := &cfg.Truncate[i]
		job.Name = os.ExpandEnv(job.Name)
		job.Storage = os.ExpandEnv(job.Storage)
		job.Prefix = os.ExpandEnv(job.Prefix)
	}

	for i := range cfg.Notifications {
		nt := &cfg.Notifications[i]
		nt.Type = os.ExpandEnv(nt.Type)
		for j := range nt.On {
			nt.On[j] = os.ExpandEnv(nt.On[j])
		}
		nt.Config.SMTPHost = os.ExpandEnv(nt.Config.SMTPHost)
		nt.Config.From = os.ExpandEnv(nt.Config.From)
		nt.Config.To = os.ExpandEnv(nt.Config.To)
		nt.Config.Username = os.ExpandEnv(nt.Config.Username)
		nt.Config.Password = os.ExpandEnv(nt.Config.Password)
		nt.Config.URL = os.ExpandEnv(nt.Config.URL)
		for k, v := range nt.Config.Headers {
			nt.Config.Headers[k] = os.ExpandEnv(v)
		}
	}
}

// Job returns the truncate job with the given name.
func (c *Config) Job(name string) (TruncateJobConfig, bool) {
	for _, job := range c.Truncate {
		if job.Name == name {
			return job, true
		}
	}
	return TruncateJobConfig{}, false
}
