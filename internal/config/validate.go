package config

import "fmt"

//simple range over values to validate needed variables

func (c *Config) Validate() error {
	if c.Version == 0 {
		return fmt.Errorf("config.version must be > 0")
	}

	storageNames := map[string]struct{}{}
	for i, st := range c.Storage {
		if st.Name == "" {
			return fmt.Errorf("storage[%d].name is required", i)
		}
		if _, ok := storageNames[st.Name]; ok {
			return fmt.Errorf("duplicate storage.name %q", st.Name)
		}
		storageNames[st.Name] = struct{}{}

		switch st.Type {
		case "":
			return fmt.Errorf("storage.type is required for storage %s", st.Name)
		case "s3":
			if st.S3 == nil || st.S3.Bucket == "" {
				return fmt.Errorf("storage %s: s3.bucket is required", st.Name)
			}
			if (st.S3.AccessKey == "") != (st.S3.SecretKey == "") {
				return fmt.Errorf("storage %s: s3.access_key and s3.secret_key must be set together (or env expansion failed)", st.Name)
			}
		default:
			return fmt.Errorf("storage %s: unknown type %q", st.Name, st.Type)
		}
	}

	jobNames := map[string]struct{}{}
	for i, job := range c.Truncate {
		if job.Name == "" {
			return fmt.Errorf("truncate[%d].name is required", i)
		}
		if _, ok := jobNames[job.Name]; ok {
			return fmt.Errorf("duplicate truncate.name %q", job.Name)
		}
		jobNames[job.Name] = struct{}{}

		if job.Storage == "" {
			return fmt.Errorf("truncate[%d].storage is required (must match a storage.name)", i)
		}
		if _, ok := storageNames[job.Storage]; !ok {
			return fmt.Errorf("truncate[%d].storage=%q not found in storage list", i, job.Storage)
		}
		if job.BatchSize < 0 {
			return fmt.Errorf("truncate[%d].batch_size must be >= 0 (0 uses the default)", i)
		}
	}

	for i, n := range c.Notifications {
		if n.Type == "" {
			return fmt.Errorf("notifications[%d].type is required", i)
		}
	}
	return nil
}
