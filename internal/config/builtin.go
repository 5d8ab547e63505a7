package config

// BuiltinPatterns returns the default classification rules, used when the
// config file defines none. Priority ranks are spaced by 10 so local configs
// can interleave their own rules.
func BuiltinPatterns() []Pattern {
	return []Pattern{
		{
			Category: "database_error",
			Severity: "high",
			Regex:    `(?i)(?P<kind>DatabaseError|IntegrityError|OperationalError)\b(?:.*constraint failed:\s*(?P<constraint>[\w.]+))?`,
			Priority: 10,
			Required: []string{"constraint"},
			Labels:   []string{"bug", "database", "critical"},
		},
		{
			Category: "authentication_error",
			Severity: "medium",
			Regex:    `(?i)(?P<kind>AuthenticationFailed|PermissionDenied|Unauthorized)\b(?::\s*(?P<detail>.+))?`,
			Priority: 20,
			Labels:   []string{"bug", "security", "auth"},
		},
		{
			Category: "server_error",
			Severity: "high",
			Regex:    `(?i)(?P<kind>Internal Server Error|AttributeError|KeyError)\b(?::?\s*(?P<detail>.+))?`,
			Priority: 30,
			Labels:   []string{"bug", "server-error", "critical"},
		},
		{
			Category: "validation_error",
			Severity: "medium",
			Regex:    `(?i)(?P<kind>ValidationError|Bad Request)\b(?::\s*(?P<detail>.+))?`,
			Priority: 40,
			Labels:   []string{"bug", "validation"},
		},
		{
			Category: "performance_issue",
			Severity: "medium",
			Regex:    `(?i)(?P<kind>slow query|timeout|performance)\b(?:\s*detected)?:?\s*(?P<detail>.*)`,
			Priority: 50,
			Labels:   []string{"performance", "optimization"},
		},
	}
}
