// Package config loads the garagemon configuration file (config.yaml).
//
// Sections:
//   - log      - level (debug|info|warn|error)
//   - scoring  - stress_threshold (default 40)
//   - simulate - iterations, threads, seed, seed_vehicles
//   - server   - http_port, grpc_port, broadcast_interval, auth{mode,key_env,header}
//   - alerts   - rules[]{name,condition,severity,cooldown}, webhooks[]{type,url_env}
//
// Load(path) applies defaults before unmarshalling, then validates. Default()
// returns the same defaults for commands run without a config file.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write and
// re-adds the watch after editors replace the inode on save.
package config
