package config

// Defaults returns the built-in configuration tree.
//
// Unset leaves are nil. Their presence matters: a command-line token for an
// unset leaf is stored as a string, and every leaf under "secrets" must be
// set before the hub will start.
func Defaults() Tree {
	return NewTree(map[string]any{
		"ip":   "127.0.0.1",
		"name": nil,
		"folders": map[string]any{
			"sessions": ".iotdb/sessions",
			"users":    ".iotdb/users",
		},
		"homestar": map[string]any{
			"url":     "https://homestar.io",
			"ping":    true,
			"profile": true,
		},
		"urls": map[string]any{
			"login":  "/auth/homestar",
			"logout": "/auth/logout",
			"userid": "/auth/homestar",
			"admin":  "/admin",
			"homestar": map[string]any{
				"login": "/auth/homestar",
			},
		},
		"webserver": map[string]any{
			"scheme":            "http",
			"host":              nil,
			"port":              11802,
			"url":               nil,
			"require_login":     nil,
			"index":             "things.html",
			"customize_timeout": 10,
			"session_ttl":       7 * 24 * 60,
			"folders": map[string]any{
				"static": []any{
					"$HOMESTAR_INSTALL/static",
				},
				"dynamic": []any{
					"$HOMESTAR_INSTALL/dynamic",
				},
			},
		},
		"secrets": map[string]any{
			"host":    nil,
			"session": nil,
		},
		"keys": map[string]any{
			"homestar": map[string]any{
				"key":    nil,
				"secret": nil,
				"bearer": nil,
				"owner":  nil,
			},
			"influxdb": map[string]any{
				"token": nil,
			},
			"mqttd": map[string]any{
				"username": nil,
				"password": nil,
			},
		},
		"access": map[string]any{
			"login": false,
			"open":  true,
		},
		"debug": map[string]any{
			"requests": nil,
			"urls":     nil,
		},
		"location": map[string]any{
			"latitude":    nil,
			"longitude":   nil,
			"locality":    nil,
			"country":     nil,
			"region":      nil,
			"timezone":    nil,
			"postal_code": nil,
		},
		"mqttd": map[string]any{
			"enabled":   false,
			"host":      "localhost",
			"port":      1883,
			"websocket": 9001,
			"tls":       false,
			"client_id": nil,
			"qos":       1,
		},
		"influxdb": map[string]any{
			"enabled":        false,
			"url":            "http://localhost:8086",
			"org":            "homestar",
			"bucket":         "homestar",
			"batch_size":     100,
			"flush_interval": 10,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "json",
			"output": "stdout",
		},
		"profile":       nil,
		"profile_delay": 8,
		"cookbooks":     "cookbooks",
	})
}
