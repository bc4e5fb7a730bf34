// Package config loads service configuration with Viper.
//
// Values come from defaults, a config.yml found next to the binary's cmd
// directory, a .env file loaded with godotenv, and the process environment,
// in that order of priority. Nested keys map to upper-case environment names
// joined by underscores (store.path is STORE_PATH).
//
//	var cfg Config
//	if err := config.Load("seqdemo", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
package config
